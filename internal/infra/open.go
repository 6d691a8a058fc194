package infra

import (
	"fmt"
	"path/filepath"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// Store drivers.
const (
	DriverEncrypted = "encrypted"
	DriverFile      = "file"
	DriverRedis     = "redis"
)

// StoreOptions selects and configures a store driver.
type StoreOptions struct {
	Driver         string
	DataDir        string
	RedisAddr      string
	RedisNamespace string
}

// OpenStore opens the shared store both contexts agree on.
func OpenStore(opts StoreOptions) (domain.Store, error) {
	switch opts.Driver {
	case DriverEncrypted, "":
		key, err := EnsureKey(NewFileKeyProvider(opts.DataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to load store key: %w", err)
		}
		return NewEncryptedStore(opts.DataDir, key)
	case DriverFile:
		return NewFileStore(filepath.Join(opts.DataDir, "store"))
	case DriverRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisNamespace)
	}
	return nil, fmt.Errorf("unknown store driver: %q", opts.Driver)
}
