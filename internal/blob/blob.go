// Package blob provides a small key-value store for opaque serialized
// collections, with in-memory, SQLite, PostgreSQL, and Redis backends.
package blob

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("blob not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("blob store closed")
)

// Store persists named blobs.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// PutMany writes every entry. Backends that support it write the batch
	// atomically.
	PutMany(ctx context.Context, entries map[string][]byte) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
