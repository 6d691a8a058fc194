// Package config loads appgate settings from YAML.
package config

import "time"

// Config represents the full appgate configuration
type Config struct {
	// Directory holding the shared store, key file and logs
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Unblock  UnblockConfig  `yaml:"unblock" mapstructure:"unblock"`
	Shopping ShoppingConfig `yaml:"shopping" mapstructure:"shopping"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the shared store driver
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"` // encrypted, file or redis
	RedisAddr      string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisNamespace string `yaml:"redis_namespace" mapstructure:"redis_namespace"`
}

// UnblockConfig configures unblock windows
type UnblockConfig struct {
	DurationMinutes int `yaml:"duration_minutes" mapstructure:"duration_minutes"`
}

// ShoppingConfig configures shopping session tracking
type ShoppingConfig struct {
	MinSessionSeconds int `yaml:"min_session_seconds" mapstructure:"min_session_seconds"`
}

// MinSession returns the threshold as a duration.
func (c ShoppingConfig) MinSession() time.Duration {
	return time.Duration(c.MinSessionSeconds) * time.Second
}

// MetricsConfig configures analytics
type MetricsConfig struct {
	QuietStartHour int `yaml:"quiet_start_hour" mapstructure:"quiet_start_hour"`
	QuietEndHour   int `yaml:"quiet_end_hour" mapstructure:"quiet_end_hour"`
}

// MonitorConfig configures the monitor host
type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// LogConfig configures zap output
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	Path  string `yaml:"path" mapstructure:"path"`
}
