// Package facts provides a namespaced, last-write-wins key-to-value
// association over device-local storage. One value per key; absence is a
// distinct state, never a default value.
package facts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

// Store persists one fact per external key under a shared namespace prefix.
type Store struct {
	store  storage.Store
	prefix string
	log    logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a fact store namespaced under prefix. All keys in the
// underlying storage are of the form prefix+key.
func New(store storage.Store, prefix string, opts ...Option) *Store {
	s := &Store{
		store:  store,
		prefix: prefix,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put persists value under key, silently overwriting any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, s.prefix+key, []byte(value)); err != nil {
		s.log.Error(ctx, "fact write failed", logger.String("key", key), logger.Error(err))
		metrics.RecordStorageError("facts", "set")
		return fmt.Errorf("put fact %q: %w", key, err)
	}
	return nil
}

// Get reads the fact for key. The second return distinguishes absence from
// any stored value. Storage failures are logged and reported as absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	raw, err := s.store.Get(ctx, s.prefix+key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.log.Error(ctx, "fact read failed", logger.String("key", key), logger.Error(err))
		metrics.RecordStorageError("facts", "get")
		return "", false
	}
	return string(raw), true
}

// Has reports whether a fact exists for key.
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

// GetMany reads facts for all given keys in one batch. Keys with no record
// are omitted from the result.
func (s *Store) GetMany(ctx context.Context, keys []string) map[string]string {
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.prefix + k
	}

	raw, err := s.store.MultiGet(ctx, namespaced)
	if err != nil {
		s.log.Error(ctx, "fact batch read failed", logger.Int("keys", len(keys)), logger.Error(err))
		metrics.RecordStorageError("facts", "multiget")
		return map[string]string{}
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[strings.TrimPrefix(k, s.prefix)] = string(v)
	}
	return out
}

// Remove deletes the fact for key. No error if absent.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.store.Remove(ctx, s.prefix+key); err != nil {
		s.log.Error(ctx, "fact remove failed", logger.String("key", key), logger.Error(err))
		metrics.RecordStorageError("facts", "remove")
		return fmt.Errorf("remove fact %q: %w", key, err)
	}
	return nil
}

// RemoveAll enumerates every key under the namespace and deletes them in one
// batch. Intended for debug and admin tooling, not the product flow.
func (s *Store) RemoveAll(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx, s.prefix)
	if err != nil {
		s.log.Error(ctx, "fact enumeration failed", logger.Error(err))
		metrics.RecordStorageError("facts", "keys")
		return 0, fmt.Errorf("enumerate facts: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.store.MultiRemove(ctx, keys); err != nil {
		s.log.Error(ctx, "fact batch remove failed", logger.Error(err))
		metrics.RecordStorageError("facts", "multiremove")
		return 0, fmt.Errorf("remove facts: %w", err)
	}
	return len(keys), nil
}

// Keys returns the external (unprefixed) keys of every stored fact.
func (s *Store) Keys(ctx context.Context) []string {
	keys, err := s.store.Keys(ctx, s.prefix)
	if err != nil {
		s.log.Error(ctx, "fact enumeration failed", logger.Error(err))
		metrics.RecordStorageError("facts", "keys")
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.TrimPrefix(k, s.prefix)
	}
	return out
}
