// Package config provides configuration management for the feed gateway.
// It loads configuration from environment variables with sensible defaults
// and validates it so the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file path (default: stdout)
//
// Database Configuration (credential store):
//   - DATABASE_TYPE: "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./feed_gateway.db)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//
// Redis Configuration (response cache):
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - CACHE_TTL: Response cache entry lifetime (default: 600s)
//
// Upstream Configuration:
//   - UPSTREAM_BASE_URL: Video platform base URL (default: https://www.youtube.com)
//   - UPSTREAM_TIMEOUT: Upstream request timeout (default: 30s)
//
// Security Configuration:
//   - COOKIE_ENCRYPTION_KEY: Key for encrypting stored cookie blobs
//     (32 characters if provided; blobs stored in plaintext otherwise)
//   - TLS_CERT / TLS_KEY: Optional TLS certificate and key paths
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the feed gateway. All string
// fields correspond to environment variables that can be set to override
// the default values.
//
// The configuration is loaded using Load() and should be validated with
// Validate() before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Database configuration for the credential store
	DatabaseType     string // "sqlite" or "postgres"
	DatabasePath     string // Path to SQLite database file
	PostgresHost     string // PostgreSQL host address
	PostgresPort     string // PostgreSQL port number
	PostgresDB       string // PostgreSQL database name
	PostgresUser     string // PostgreSQL username
	PostgresPassword string // PostgreSQL password
	PostgresSSLMode  string // PostgreSQL SSL mode (disable, require, etc.)

	// Redis configuration for the response cache
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
	CacheTTL      string // Response cache TTL (e.g. "600s", "10m")

	// Upstream platform configuration
	UpstreamBaseURL string // Video platform base URL
	UpstreamTimeout string // Upstream request timeout (e.g. "30s")

	// Security configuration
	CookieEncryptionKey string // Key for encrypting stored cookie blobs
	TLSCert             string // TLS certificate file path
	TLSKey              string // TLS key file path
}

// Load creates a new Config instance with values loaded from environment
// variables. It does not validate the configuration - call Validate() on
// the returned Config before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./feed_gateway.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "feed_gateway"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
		CacheTTL:      getEnv("CACHE_TTL", "600s"),

		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "https://www.youtube.com"),
		UpstreamTimeout: getEnv("UPSTREAM_TIMEOUT", "30s"),

		CookieEncryptionKey: getEnv("COOKIE_ENCRYPTION_KEY", ""),
		TLSCert:             getEnv("TLS_CERT", ""),
		TLSKey:              getEnv("TLS_KEY", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default
// value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid. The application should call
// this after loading configuration and before starting.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.DatabaseType {
	case "sqlite", "postgres", "postgresql":
		// Valid database types
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}

	if c.DatabaseType == "postgres" || c.DatabaseType == "postgresql" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if ttl, err := time.ParseDuration(c.CacheTTL); err != nil || ttl <= 0 {
		return fmt.Errorf("CACHE_TTL must be a positive duration (e.g., '600s', '10m')")
	}

	if timeout, err := time.ParseDuration(c.UpstreamTimeout); err != nil || timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be a positive duration (e.g., '30s')")
	}

	if c.UpstreamBaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must not be empty")
	}

	if c.CookieEncryptionKey != "" && len(c.CookieEncryptionKey) != 32 {
		return fmt.Errorf("COOKIE_ENCRYPTION_KEY must be exactly 32 characters (256 bits) when provided")
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be provided together")
	}

	return nil
}

// CacheTTLDuration returns the parsed cache TTL. Validate must have
// succeeded before calling.
func (c *Config) CacheTTLDuration() time.Duration {
	ttl, _ := time.ParseDuration(c.CacheTTL)
	return ttl
}

// UpstreamTimeoutDuration returns the parsed upstream timeout. Validate
// must have succeeded before calling.
func (c *Config) UpstreamTimeoutDuration() time.Duration {
	timeout, _ := time.ParseDuration(c.UpstreamTimeout)
	return timeout
}
