// Package kvstore provides persistent key-value storage for registry state.
// It offers pluggable backends (pebble, leveldb, memory) behind a common
// interface, with optional value compression and an LRU read cache.
package kvstore

import "fmt"

// Item is a single key-value pair for batch writes.
type Item struct {
	Key   []byte
	Value []byte
}

// Status represents the status of a backend operation.
type Status int

const (
	// OK indicates the operation was successful
	OK Status = iota
	// NotFound indicates the requested key was not found
	NotFound
	// BackendError indicates an error in the storage backend
	BackendError
	// Unknown indicates an unknown error occurred
	Unknown
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case BackendError:
		return "BackendError"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Backend defines the interface for storage backends.
type Backend interface {
	// Name returns a human-readable name for this backend.
	Name() string

	// Open opens the backend for use.
	Open(createIfMissing bool) error

	// Close closes the backend and releases resources.
	Close() error

	// IsOpen returns true if the backend is currently open.
	IsOpen() bool

	// Get retrieves a single value by key.
	Get(key []byte) ([]byte, Status)

	// Put saves a single key-value pair.
	Put(key, value []byte) Status

	// PutBatch saves multiple key-value pairs atomically.
	PutBatch(items []Item) Status

	// Sync forces pending writes to be flushed.
	Sync() Status

	// ForEach iterates over all key-value pairs in the backend.
	ForEach(fn func(key, value []byte) error) error
}
