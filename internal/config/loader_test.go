package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "encrypted", cfg.Store.Driver)
	assert.Equal(t, 15, cfg.Unblock.DurationMinutes)
	assert.Equal(t, 120*time.Second, cfg.Shopping.MinSession())
	assert.Equal(t, 22, cfg.Metrics.QuietStartHour)
	assert.Equal(t, 6, cfg.Metrics.QuietEndHour)
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
store:
  driver: file
unblock:
  duration_minutes: 30
monitor:
  poll_interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 30, cfg.Unblock.DurationMinutes)
	assert.Equal(t, 2*time.Second, cfg.Monitor.PollInterval)
	// Untouched keys keep defaults
	assert.Equal(t, 120, cfg.Shopping.MinSessionSeconds)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("unblock:\n  duration_minutes: 0\n"), 0600))

	_, err := Load("", dir)
	assert.Error(t, err)
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName)

	require.NoError(t, WriteDefault(path, dir))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(dir), cfg)
}

func TestWriteDefault_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: redis\n"), 0600))

	require.NoError(t, WriteDefault(path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "redis")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"negative shopping", func(c *Config) { c.Shopping.MinSessionSeconds = -1 }},
		{"quiet hour out of range", func(c *Config) { c.Metrics.QuietStartHour = 24 }},
		{"zero poll", func(c *Config) { c.Monitor.PollInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
