// Package storage defines the device-local key-value store contract and its
// implementations.
//
// Each operation is individually atomic; there is no cross-key transaction.
// Higher layers (recency, facts) own any read-modify-write serialization.
package storage

import "context"

// Store provides string-keyed byte-valued persistence.
type Store interface {
	// Get returns the value for key. Returns ErrNotFound on miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Idempotent - no error if absent.
	Remove(ctx context.Context, key string) error

	// MultiGet returns the values for the given keys. Keys with no record
	// are omitted from the result, never present with a nil value.
	MultiGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// MultiRemove deletes all given keys in one batch. Absent keys are skipped.
	MultiRemove(ctx context.Context, keys []string) error

	// Keys returns every stored key with the given prefix. An empty prefix
	// enumerates all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}
