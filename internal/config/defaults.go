package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// DefaultConfig returns the default configuration rooted at dataDir
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Driver:         "encrypted",
			RedisAddr:      "localhost:6379",
			RedisNamespace: "appgate",
		},
		Unblock: UnblockConfig{
			DurationMinutes: domain.DefaultUnblockMinutes,
		},
		Shopping: ShoppingConfig{
			MinSessionSeconds: int(domain.DefaultShoppingSessionThreshold / time.Second),
		},
		Metrics: MetricsConfig{
			QuietStartHour: 22,
			QuietEndHour:   6,
		},
		Monitor: MonitorConfig{
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(dataDir, "appgate.log"),
		},
	}
}

// WriteDefault writes the default configuration to path, creating parents.
// An existing file is left untouched.
func WriteDefault(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig(dataDir))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	content := append([]byte("# appgate configuration\n"), data...)
	return os.WriteFile(path, content, 0600)
}
