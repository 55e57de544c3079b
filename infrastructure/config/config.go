// Package config reads the runtime configuration from the environment. A
// .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds the settings of one capture session
type Config struct {
	StateDir string
	Storage  string
	Headless bool
	LogLevel logrus.Level

	Provider    string
	OpenAIKey   string
	OpenAIModel string
	GroqKey     string
	GroqModel   string
}

// Load - reads .env (optional) and the environment
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv - builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		StateDir:    os.Getenv("CAPTURE_STATE_DIR"),
		Storage:     strings.ToLower(getEnv("CAPTURE_STORAGE", StorageFile)),
		Provider:    strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		GroqKey:     os.Getenv("GROQ_API_KEY"),
		GroqModel:   os.Getenv("GROQ_MODEL"),
		LogLevel:    logrus.InfoLevel,
	}

	if cfg.StateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(homeDir, ".page_capture")
	}

	if v := os.Getenv("CAPTURE_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CAPTURE_HEADLESS %q: %w", v, err)
		}
		cfg.Headless = headless
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate - checks values that flags may have overridden
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	return nil
}

// APIKey - returns the environment credential for provider
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "groq":
		return c.GroqKey
	case "openai":
		return c.OpenAIKey
	}
	return ""
}

// Model - returns the environment model override for provider
func (c *Config) Model(provider string) string {
	switch provider {
	case "groq":
		return c.GroqModel
	case "openai":
		return c.OpenAIModel
	}
	return ""
}

// SQLitePath - returns the database file of the sqlite backend
func (c *Config) SQLitePath() string {
	return filepath.Join(c.StateDir, "state.db")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
