package kvstore

import (
	"fmt"

	"github.com/pricereg/priceregd/internal/storage/kvstore/compression"
)

// Config holds configuration options for the key-value store.
type Config struct {
	// Backend specifies the storage backend to use
	Backend string `json:"backend" mapstructure:"backend"`

	// Path specifies the file system path for data storage
	Path string `json:"path" mapstructure:"path"`

	// CacheSize is the number of values held in the LRU read cache.
	// Zero disables the cache.
	CacheSize int `json:"cache_size" mapstructure:"cache_size"`

	// Compressor names the value compression algorithm ("none", "lz4")
	Compressor string `json:"compressor" mapstructure:"compressor"`

	// CreateIfMissing creates the on-disk store when it does not exist
	CreateIfMissing bool `json:"create_if_missing" mapstructure:"create_if_missing"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:         "pebble",
		Path:            "./data",
		CacheSize:       2000,
		Compressor:      "lz4",
		CreateIfMissing: true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("%w: backend must be specified", ErrInvalidConfig)
	}
	if !IsBackendAvailable(c.Backend) {
		return fmt.Errorf("%w: %s (available: %v)", ErrUnsupportedBackend, c.Backend, AvailableBackends())
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("%w: path must be specified for backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size cannot be negative", ErrInvalidConfig)
	}
	if c.Compressor == "" {
		return fmt.Errorf("%w: compressor must be specified", ErrInvalidConfig)
	}
	if !compression.IsAvailable(c.Compressor) {
		return fmt.Errorf("%w: unknown compressor %q (available: %v)", ErrInvalidConfig, c.Compressor, compression.Available())
	}
	return nil
}
