package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects where the durable key-value storage lives.
type StorageBackend string

const (
	// StorageFile keeps the storage in a local JSON file (default).
	StorageFile StorageBackend = "file"
	// StorageRedis keeps the storage in Redis, for headless deployments
	// without a durable local filesystem.
	StorageRedis StorageBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (s *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis":
		*s = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: file, redis)", v)
	}
}

// RedisConfig configures the Redis storage backend.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// StorageConfig configures the durable client-side storage.
type StorageConfig struct {
	// Backend selects the storage implementation.
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`

	// Path is the storage file location for the file backend. Empty
	// means a default under the user config directory.
	Path string `env:"PATH"`

	// Redis configuration (used when Backend=redis).
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Sanitize applies guardrails to the storage configuration.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageFile
	}
}
