package kvstore

import (
	"errors"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBBackend implements a persistent Backend on top of goleveldb.
type LevelDBBackend struct {
	db     *leveldb.DB
	config *Config

	open int64 // atomic flag for open state
}

// NewLevelDBBackend creates a new LevelDB backend.
func NewLevelDBBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Path == "" {
		return nil, ErrInvalidConfig
	}

	return &LevelDBBackend{config: config}, nil
}

// Name returns the name of this backend.
func (l *LevelDBBackend) Name() string {
	return "leveldb"
}

// Open opens the underlying LevelDB database.
func (l *LevelDBBackend) Open(createIfMissing bool) error {
	if l.IsOpen() {
		return nil
	}

	opts := &opt.Options{
		ErrorIfMissing: !createIfMissing,
	}

	db, err := leveldb.OpenFile(l.config.Path, opts)
	if err != nil {
		if ldberrors.IsCorrupted(err) {
			db, err = leveldb.RecoverFile(l.config.Path, nil)
		}
		if err != nil {
			return err
		}
	}

	l.db = db
	atomic.StoreInt64(&l.open, 1)
	return nil
}

// Close closes the database.
func (l *LevelDBBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&l.open, 1, 0) {
		return nil // Already closed
	}
	return l.db.Close()
}

// IsOpen returns true if the backend is currently open.
func (l *LevelDBBackend) IsOpen() bool {
	return atomic.LoadInt64(&l.open) != 0
}

// Get retrieves a single value by key.
func (l *LevelDBBackend) Get(key []byte) ([]byte, Status) {
	if !l.IsOpen() {
		return nil, BackendError
	}

	value, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, NotFound
		}
		return nil, BackendError
	}
	return value, OK
}

// Put saves a single key-value pair.
func (l *LevelDBBackend) Put(key, value []byte) Status {
	if !l.IsOpen() {
		return BackendError
	}

	if err := l.db.Put(key, value, &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}

// PutBatch saves multiple key-value pairs in one atomic batch.
func (l *LevelDBBackend) PutBatch(items []Item) Status {
	if !l.IsOpen() {
		return BackendError
	}

	batch := new(leveldb.Batch)
	for _, item := range items {
		batch.Put(item.Key, item.Value)
	}

	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}

// Sync is satisfied by synchronous writes; nothing further to flush.
func (l *LevelDBBackend) Sync() Status {
	if !l.IsOpen() {
		return BackendError
	}
	return OK
}

// ForEach iterates over all key-value pairs in key order.
func (l *LevelDBBackend) ForEach(fn func(key, value []byte) error) error {
	if !l.IsOpen() {
		return ErrBackendClosed
	}

	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
