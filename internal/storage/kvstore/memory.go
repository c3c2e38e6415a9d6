package kvstore

import (
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryBackend implements an in-memory Backend for testing and standalone
// use. It provides thread-safe operations and no persistence.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	open int64 // atomic flag for open state
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string][]byte),
	}
}

// NewMemoryBackendFromConfig creates a new in-memory backend from config.
// The config is ignored for memory backends but required for the BackendFactory signature.
func NewMemoryBackendFromConfig(config *Config) (Backend, error) {
	return NewMemoryBackend(), nil
}

// Name returns the name of this backend.
func (m *MemoryBackend) Name() string {
	return "memory"
}

// Open opens the backend for use.
func (m *MemoryBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&m.open, 0, 1) {
		return ErrBackendClosed // Already open, treat as error for consistency
	}
	return nil
}

// Close closes the backend and clears all data.
func (m *MemoryBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&m.open, 1, 0) {
		return nil // Already closed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

// IsOpen returns true if the backend is currently open.
func (m *MemoryBackend) IsOpen() bool {
	return atomic.LoadInt64(&m.open) != 0
}

// Get retrieves a single value by key.
func (m *MemoryBackend) Get(key []byte) ([]byte, Status) {
	if !m.IsOpen() {
		return nil, BackendError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[string(key)]
	if !ok {
		return nil, NotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, OK
}

// Put saves a single key-value pair.
func (m *MemoryBackend) Put(key, value []byte) Status {
	if !m.IsOpen() {
		return BackendError
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = stored
	return OK
}

// PutBatch saves multiple key-value pairs atomically.
func (m *MemoryBackend) PutBatch(items []Item) Status {
	if !m.IsOpen() {
		return BackendError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		stored := make([]byte, len(item.Value))
		copy(stored, item.Value)
		m.data[string(item.Key)] = stored
	}
	return OK
}

// Sync is a no-op for the memory backend.
func (m *MemoryBackend) Sync() Status {
	if !m.IsOpen() {
		return BackendError
	}
	return OK
}

// ForEach iterates over all key-value pairs in key order.
func (m *MemoryBackend) ForEach(fn func(key, value []byte) error) error {
	if !m.IsOpen() {
		return ErrBackendClosed
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)

	for _, k := range keys {
		m.mu.RLock()
		v, ok := m.data[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
