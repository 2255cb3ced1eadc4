package storage

import (
	"fmt"

	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/config"
)

// GenericConfig is a simple map-based implementation of StorageConfig.
// Backend factories translate it into their typed configs.
type GenericConfig map[string]interface{}

func (gc GenericConfig) Validate() error {
	return nil
}

func (gc GenericConfig) GetType() string {
	if t, ok := gc["type"].(string); ok {
		return t
	}
	return "unknown"
}

func (gc GenericConfig) GetConnectionString() string {
	if cs, ok := gc["connection_string"].(string); ok {
		return cs
	}
	return ""
}

// GetString returns a string value from the config map.
func (gc GenericConfig) GetString(key string) string {
	if v, ok := gc[key].(string); ok {
		return v
	}
	return ""
}

// NewStorage creates a credential store adapter based on configuration.
func NewStorage(cfg *config.Config) (Storage, error) {
	var storageConfig StorageConfig

	switch cfg.DatabaseType {
	case "sqlite":
		storageConfig = GenericConfig{
			"type": "sqlite",
			"path": cfg.DatabasePath,
		}

	case "postgres", "postgresql":
		storageConfig = GenericConfig{
			"type":     "postgres",
			"host":     cfg.PostgresHost,
			"port":     cfg.PostgresPort,
			"database": cfg.PostgresDB,
			"username": cfg.PostgresUser,
			"password": cfg.PostgresPassword,
			"sslmode":  cfg.PostgresSSLMode,
		}

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}

	store, err := Create(storageConfig.GetType(), storageConfig)
	if err != nil {
		return nil, err
	}

	// Cookie blobs are encrypted at rest when a key is configured.
	if cfg.CookieEncryptionKey != "" {
		return NewEncryptedStorage(store, cfg.CookieEncryptionKey)
	}

	return store, nil
}
