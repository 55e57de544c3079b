package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"page_capture/domain/interfaces"
)

type fileState struct {
	dir string
}

// NewFileState - creates file-backed storage under dir, one file per key
func NewFileState(dir string) (interfaces.Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	return &fileState{dir: dir}, nil
}

// Get - reads the file stored under key
func (s *fileState) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Put - replaces the file stored under key. The value is written to a
// temporary file first and renamed over the old one.
func (s *fileState) Put(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *fileState) Close() error {
	return nil
}

func (s *fileState) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
