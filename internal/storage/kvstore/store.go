package kvstore

import (
	"encoding/binary"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pricereg/priceregd/internal/storage/kvstore/compression"
)

const (
	// Value framing: a one-byte flag, then for compressed values a
	// 4-byte little-endian uncompressed length before the payload.
	flagRaw        = 0x00
	flagCompressed = 0x01

	compressedHeaderSize = 1 + 4

	// Values below this size are stored uncompressed.
	minCompressionSize = 64
)

// Store wraps a Backend with value compression and an LRU read cache.
// It is the handle the registry uses for all persistence.
type Store struct {
	backend    Backend
	compressor compression.Compressor
	cache      *lru.Cache[string, []byte] // decoded values, keyed by raw key
}

// Open creates the configured backend, opens it and returns a ready Store.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	compressor, err := compression.Get(cfg.Compressor)
	if err != nil {
		return nil, err
	}

	backend, err := CreateBackend(cfg.Backend, cfg)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(cfg.CreateIfMissing); err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	store := &Store{
		backend:    backend,
		compressor: compressor,
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			backend.Close()
			return nil, err
		}
		store.cache = cache
	}

	return store, nil
}

// NewStore wraps an already-open backend. Used by tests.
func NewStore(backend Backend, compressor compression.Compressor, cacheSize int) (*Store, error) {
	store := &Store{
		backend:    backend,
		compressor: compressor,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []byte](cacheSize)
		if err != nil {
			return nil, err
		}
		store.cache = cache
	}
	return store, nil
}

// BackendName returns the name of the underlying backend.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Get retrieves the value for key, or ErrNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	if s.cache != nil {
		if value, ok := s.cache.Get(string(key)); ok {
			out := make([]byte, len(value))
			copy(out, value)
			return out, nil
		}
	}

	encoded, status := s.backend.Get(key)
	switch status {
	case OK:
	case NotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("backend %s: get failed: %s", s.backend.Name(), status)
	}

	value, err := s.decodeValue(encoded)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(string(key), value)
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores the value under key.
func (s *Store) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	encoded, err := s.encodeValue(value)
	if err != nil {
		return err
	}

	if status := s.backend.Put(key, encoded); status != OK {
		return fmt.Errorf("backend %s: put failed: %s", s.backend.Name(), status)
	}

	if s.cache != nil {
		cached := make([]byte, len(value))
		copy(cached, value)
		s.cache.Add(string(key), cached)
	}
	return nil
}

// PutBatch stores all items through a single backend batch.
func (s *Store) PutBatch(items []Item) error {
	encoded := make([]Item, 0, len(items))
	for _, item := range items {
		if len(item.Key) == 0 {
			return ErrEmptyKey
		}
		ev, err := s.encodeValue(item.Value)
		if err != nil {
			return err
		}
		encoded = append(encoded, Item{Key: item.Key, Value: ev})
	}

	if status := s.backend.PutBatch(encoded); status != OK {
		return fmt.Errorf("backend %s: batch put failed: %s", s.backend.Name(), status)
	}

	if s.cache != nil {
		for _, item := range items {
			cached := make([]byte, len(item.Value))
			copy(cached, item.Value)
			s.cache.Add(string(item.Key), cached)
		}
	}
	return nil
}

// ForEach iterates over all decoded key-value pairs.
func (s *Store) ForEach(fn func(key, value []byte) error) error {
	return s.backend.ForEach(func(key, encoded []byte) error {
		value, err := s.decodeValue(encoded)
		if err != nil {
			return err
		}
		return fn(key, value)
	})
}

// Sync flushes pending writes to stable storage.
func (s *Store) Sync() error {
	if status := s.backend.Sync(); status != OK {
		return fmt.Errorf("backend %s: sync failed: %s", s.backend.Name(), status)
	}
	return nil
}

// Close closes the store and its backend.
func (s *Store) Close() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.backend.Close()
}

// encodeValue frames a value for storage, compressing when worthwhile.
func (s *Store) encodeValue(value []byte) ([]byte, error) {
	if s.compressor == nil || s.compressor.Name() == "none" || len(value) < minCompressionSize {
		return append([]byte{flagRaw}, value...), nil
	}

	compressed, err := s.compressor.Compress(value)
	if err != nil || len(compressed)+compressedHeaderSize >= len(value)+1 {
		// Incompressible or not worth it; store raw.
		return append([]byte{flagRaw}, value...), nil
	}

	encoded := make([]byte, compressedHeaderSize+len(compressed))
	encoded[0] = flagCompressed
	binary.LittleEndian.PutUint32(encoded[1:5], uint32(len(value)))
	copy(encoded[compressedHeaderSize:], compressed)
	return encoded, nil
}

// decodeValue reverses encodeValue.
func (s *Store) decodeValue(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("corrupt value: empty")
	}

	switch encoded[0] {
	case flagRaw:
		return encoded[1:], nil
	case flagCompressed:
		if len(encoded) < compressedHeaderSize {
			return nil, fmt.Errorf("corrupt value: truncated compression header")
		}
		size := binary.LittleEndian.Uint32(encoded[1:5])
		return s.compressor.Decompress(encoded[compressedHeaderSize:], int(size))
	default:
		return nil, fmt.Errorf("corrupt value: unknown flag 0x%02x", encoded[0])
	}
}
