package kvstore

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendUnderTest builds an opened backend of the named kind, storing any
// on-disk data under a test temp dir.
func backendUnderTest(t *testing.T, name string) Backend {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Backend = name
	cfg.Path = t.TempDir()

	backend, err := CreateBackend(name, cfg)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	t.Cleanup(func() { backend.Close() })

	return backend
}

func TestBackendConformance(t *testing.T) {
	for _, name := range []string{"memory", "pebble", "leveldb"} {
		t.Run(name, func(t *testing.T) {
			b := backendUnderTest(t, name)

			assert.Equal(t, name, b.Name())
			assert.True(t, b.IsOpen())

			// Missing key
			_, status := b.Get([]byte("missing"))
			assert.Equal(t, NotFound, status)

			// Put / Get round-trip
			assert.Equal(t, OK, b.Put([]byte("k1"), []byte("v1")))
			got, status := b.Get([]byte("k1"))
			require.Equal(t, OK, status)
			assert.Equal(t, []byte("v1"), got)

			// Overwrite discards the prior value
			assert.Equal(t, OK, b.Put([]byte("k1"), []byte("v2")))
			got, status = b.Get([]byte("k1"))
			require.Equal(t, OK, status)
			assert.Equal(t, []byte("v2"), got)

			// Batch write
			items := []Item{
				{Key: []byte("k2"), Value: []byte("v2")},
				{Key: []byte("k3"), Value: []byte("v3")},
			}
			assert.Equal(t, OK, b.PutBatch(items))
			got, status = b.Get([]byte("k3"))
			require.Equal(t, OK, status)
			assert.Equal(t, []byte("v3"), got)

			assert.Equal(t, OK, b.Sync())

			// ForEach visits every pair
			seen := map[string]string{}
			err := b.ForEach(func(key, value []byte) error {
				seen[string(key)] = string(value)
				return nil
			})
			require.NoError(t, err)
			assert.Len(t, seen, 3)
			assert.Equal(t, "v2", seen["k1"])
		})
	}
}

func TestBackendClosedOperations(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Open(true))
	require.NoError(t, b.Close())

	_, status := b.Get([]byte("k"))
	assert.Equal(t, BackendError, status)
	assert.Equal(t, BackendError, b.Put([]byte("k"), []byte("v")))
	assert.Equal(t, BackendError, b.Sync())
}

func TestCreateBackendUnknown(t *testing.T) {
	_, err := CreateBackend("bogus", DefaultConfig())
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestAvailableBackends(t *testing.T) {
	names := AvailableBackends()
	assert.Contains(t, names, "memory")
	assert.Contains(t, names, "pebble")
	assert.Contains(t, names, "leveldb")
	assert.True(t, IsBackendAvailable("pebble"))
	assert.False(t, IsBackendAvailable("bogus"))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"memory needs no path", func(c *Config) { c.Backend = "memory"; c.Path = "" }, false},
		{"missing backend", func(c *Config) { c.Backend = "" }, true},
		{"missing path", func(c *Config) { c.Path = "" }, true},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, true},
		{"missing compressor", func(c *Config) { c.Compressor = "" }, true},
		{"unknown compressor", func(c *Config) { c.Compressor = "zstd" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = "rocksdb"
		assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedBackend)
	})
}

func TestPebblePersistence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = t.TempDir()

	b, err := NewPebbleBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Open(true))
	require.Equal(t, OK, b.Put([]byte("durable"), []byte("yes")))
	require.NoError(t, b.Close())

	// Reopen the same path and read the value back.
	b2, err := NewPebbleBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, b2.Open(false))
	defer b2.Close()

	got, status := b2.Get([]byte("durable"))
	require.Equal(t, OK, status)
	assert.Equal(t, []byte("yes"), got)
}

func TestLevelDBPersistence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = t.TempDir()

	b, err := NewLevelDBBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Open(true))
	require.Equal(t, OK, b.Put([]byte("durable"), []byte("yes")))
	require.NoError(t, b.Close())

	b2, err := NewLevelDBBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, b2.Open(false))
	defer b2.Close()

	got, status := b2.Get([]byte("durable"))
	require.Equal(t, OK, status)
	assert.Equal(t, []byte("yes"), got)
}

func BenchmarkMemoryBackendPut(b *testing.B) {
	backend := NewMemoryBackend()
	require.NoError(b, backend.Open(true))
	defer backend.Close()

	value := bytes.Repeat([]byte("x"), 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		backend.Put(key, value)
	}
}
