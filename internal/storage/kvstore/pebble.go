package kvstore

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

// PebbleBackend implements a persistent Backend on top of PebbleDB.
type PebbleBackend struct {
	db     *pebble.DB
	config *Config

	open int64 // atomic flag for open state
}

// NewPebbleBackend creates a new PebbleDB backend.
func NewPebbleBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Path == "" {
		return nil, ErrInvalidConfig
	}

	return &PebbleBackend{config: config}, nil
}

// Name returns the name of this backend.
func (p *PebbleBackend) Name() string {
	return "pebble"
}

// Open opens the underlying PebbleDB database.
func (p *PebbleBackend) Open(createIfMissing bool) error {
	if p.IsOpen() {
		return nil
	}

	if createIfMissing {
		if err := os.MkdirAll(p.config.Path, 0o755); err != nil {
			return err
		}
	}

	opts := &pebble.Options{
		ErrorIfNotExists: !createIfMissing,
		Levels: []pebble.LevelOptions{
			{FilterPolicy: bloom.FilterPolicy(10)},
		},
	}

	db, err := pebble.Open(p.config.Path, opts)
	if err != nil {
		return err
	}

	p.db = db
	atomic.StoreInt64(&p.open, 1)
	return nil
}

// Close closes the database.
func (p *PebbleBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&p.open, 1, 0) {
		return nil // Already closed
	}
	return p.db.Close()
}

// IsOpen returns true if the backend is currently open.
func (p *PebbleBackend) IsOpen() bool {
	return atomic.LoadInt64(&p.open) != 0
}

// Get retrieves a single value by key.
func (p *PebbleBackend) Get(key []byte) ([]byte, Status) {
	if !p.IsOpen() {
		return nil, BackendError
	}

	value, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, NotFound
		}
		return nil, BackendError
	}
	defer closer.Close()

	// The returned slice is only valid until closer.Close().
	out := make([]byte, len(value))
	copy(out, value)
	return out, OK
}

// Put saves a single key-value pair.
func (p *PebbleBackend) Put(key, value []byte) Status {
	if !p.IsOpen() {
		return BackendError
	}

	if err := p.db.Set(key, value, pebble.Sync); err != nil {
		return BackendError
	}
	return OK
}

// PutBatch saves multiple key-value pairs in one atomic batch.
func (p *PebbleBackend) PutBatch(items []Item) Status {
	if !p.IsOpen() {
		return BackendError
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, item := range items {
		if err := batch.Set(item.Key, item.Value, nil); err != nil {
			return BackendError
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return BackendError
	}
	return OK
}

// Sync flushes pending writes to disk.
func (p *PebbleBackend) Sync() Status {
	if !p.IsOpen() {
		return BackendError
	}
	if err := p.db.Flush(); err != nil {
		return BackendError
	}
	return OK
}

// ForEach iterates over all key-value pairs in key order.
func (p *PebbleBackend) ForEach(fn func(key, value []byte) error) error {
	if !p.IsOpen() {
		return ErrBackendClosed
	}

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
