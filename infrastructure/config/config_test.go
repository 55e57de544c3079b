package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CAPTURE_STATE_DIR", "CAPTURE_STORAGE", "CAPTURE_HEADLESS", "LOG_LEVEL",
		"AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "GROQ_API_KEY", "GROQ_MODEL"} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/tester")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/tester", ".page_capture"), cfg.StateDir)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.False(t, cfg.Headless)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "openai", cfg.Provider)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAPTURE_STATE_DIR", "/tmp/capture")
	t.Setenv("CAPTURE_STORAGE", "SQLite")
	t.Setenv("CAPTURE_HEADLESS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AI_PROVIDER", "groq")
	t.Setenv("GROQ_API_KEY", "gsk")
	t.Setenv("GROQ_MODEL", "mixtral")
	t.Setenv("OPENAI_API_KEY", "sk")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/capture", cfg.StateDir)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "/tmp/capture/state.db", cfg.SQLitePath())
	assert.True(t, cfg.Headless)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "gsk", cfg.APIKey("groq"))
	assert.Equal(t, "sk", cfg.APIKey("openai"))
	assert.Equal(t, "mixtral", cfg.Model("groq"))
	assert.Empty(t, cfg.APIKey("other"))
}

func TestFromEnv_Invalid(t *testing.T) {
	for key, val := range map[string]string{
		"CAPTURE_STORAGE":  "redis",
		"CAPTURE_HEADLESS": "sometimes",
		"LOG_LEVEL":        "loud",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CAPTURE_STATE_DIR", t.TempDir())
			t.Setenv(key, val)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
