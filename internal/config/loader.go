package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FileName is the config file name inside the data directory
const FileName = "config.yaml"

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path, dataDir string) (*Config, error) {
	cfg := DefaultConfig(dataDir)

	if path == "" {
		path = filepath.Join(dataDir, FileName)
	}
	if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APPGATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Unblock.DurationMinutes <= 0 {
		return fmt.Errorf("unblock.duration_minutes must be positive, got %d", c.Unblock.DurationMinutes)
	}
	if c.Shopping.MinSessionSeconds < 0 {
		return fmt.Errorf("shopping.min_session_seconds cannot be negative")
	}
	if !validHour(c.Metrics.QuietStartHour) || !validHour(c.Metrics.QuietEndHour) {
		return fmt.Errorf("metrics quiet hours must be within 0-23")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
