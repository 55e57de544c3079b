package storage

import (
	"fmt"

	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"gopkg.in/yaml.v3"
)

// SettingsKey is the storage key of the generation settings document
const SettingsKey = "settings.yaml"

// Settings persists the provider selection and its credential as YAML
type Settings struct {
	storage interfaces.Storage
}

// NewSettings - creates a settings store on top of storage
func NewSettings(storage interfaces.Storage) *Settings {
	return &Settings{storage: storage}
}

// Load - returns the stored settings, or zero settings when none were saved
func (s *Settings) Load() (entities.Settings, error) {
	var settings entities.Settings
	data, err := s.storage.Get(SettingsKey)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(data) == 0 {
		return settings, nil
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return entities.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

// Save - replaces the stored settings
func (s *Settings) Save(settings entities.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := s.storage.Put(SettingsKey, data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
