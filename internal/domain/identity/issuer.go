// Package identity issues the stable opaque device identifier used to key
// device-scoped facts such as votes.
package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

const defaultKey = "device_id"

// Issuer hands out the device id, creating it on first need. Once created
// and persisted the value never changes for the lifetime of the install.
type Issuer struct {
	mu    sync.Mutex
	store storage.Store
	key   string
	log   logger.Logger

	// cached avoids re-reading storage after the first successful call.
	cached string
}

// Option applies a configuration option to the Issuer.
type Option func(*Issuer)

// WithKey overrides the storage key the identity is persisted under.
func WithKey(key string) Option {
	return func(i *Issuer) {
		if key != "" {
			i.key = key
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(i *Issuer) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an Issuer backed by the given store.
func New(store storage.Store, opts ...Option) *Issuer {
	i := &Issuer{
		store: store,
		key:   defaultKey,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// GetOrCreate returns the persisted device id, generating and persisting a
// new one if none exists. If persistence fails, a freshly generated id is
// returned anyway: availability wins over durability, and the next call may
// hand out a different id. Calls within one process are serialized; two
// processes racing on first call can still each persist a value, with the
// store's last write winning.
func (i *Issuer) GetOrCreate(ctx context.Context) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cached != "" {
		return i.cached
	}

	existing, err := i.store.Get(ctx, i.key)
	if err == nil && len(existing) > 0 {
		i.cached = string(existing)
		return i.cached
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		i.log.Error(ctx, "reading device id failed", logger.Error(err))
		metrics.RecordStorageError("identity", "get")
		// Fall through and mint a throwaway id; do not cache it, the
		// persisted value (if any) must win on the next call.
		return uuid.NewString()
	}

	id := uuid.NewString()
	if err := i.store.Set(ctx, i.key, []byte(id)); err != nil {
		i.log.Error(ctx, "persisting device id failed", logger.Error(err))
		metrics.RecordStorageError("identity", "set")
		return id
	}
	i.cached = id
	return id
}
