// Package recency keeps the bounded, deduplicated, most-recent-first list of
// entities the user has interacted with, persisted across restarts.
//
// The list is small by construction, so every mutation is a full
// read-modify-write of the persisted payload. Mutations on one Cache are
// serialized by its mutex; the read-modify-write is still not atomic across
// the storage boundary, so two processes sharing a store race with
// last-write-wins semantics.
package recency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

// Defaults for the cache.
const (
	DefaultCapacity = 10
	defaultKey      = "recent_searches"
)

// Cache is the persisted recently-viewed list.
type Cache struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	capacity int
	log      logger.Logger
	now      func() time.Time
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithCapacity bounds the list. Recording beyond capacity evicts from the
// back, which by construction is the least recently recorded entry.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithKey overrides the storage key the list is persisted under.
func WithKey(key string) Option {
	return func(c *Cache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithNow overrides the timestamp source. Tests use this to make
// RecordedAt deterministic.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache over the given storage.
func New(store storage.Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		key:      defaultKey,
		capacity: DefaultCapacity,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record inserts ref at the front of the list, removing any existing entry
// with the same (kind, id) and truncating to capacity. The entry's
// RecordedAt is stamped with the current time.
func (c *Cache) Record(ctx context.Context, ref model.EntityRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.load(ctx)

	filtered := list[:0]
	for _, e := range list {
		if e.Key() != ref.Key() {
			filtered = append(filtered, e)
		}
	}

	ref.RecordedAt = c.now().UnixMilli()
	updated := append([]model.EntityRef{ref}, filtered...)
	if len(updated) > c.capacity {
		metrics.RecordRecencyEviction()
		updated = updated[:c.capacity]
	}

	if err := c.save(ctx, updated); err != nil {
		return err
	}
	metrics.RecordRecencyRecord()
	metrics.UpdateRecencySize(len(updated))
	return nil
}

// List returns the persisted list verbatim, most recent first. A missing or
// corrupt payload yields an empty list; the cache is best-effort and never a
// correctness dependency.
func (c *Cache) List(ctx context.Context) []model.EntityRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Remove filters the entry with the given id out of the list.
func (c *Cache) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.load(ctx)
	filtered := list[:0]
	for _, e := range list {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == len(list) {
		return nil
	}

	if err := c.save(ctx, filtered); err != nil {
		return err
	}
	metrics.UpdateRecencySize(len(filtered))
	return nil
}

// Patch applies fn to the stored entry with the given id, if present, and
// persists the result. Position and RecordedAt are preserved: enrichment
// write-backs must not count as interactions.
func (c *Cache) Patch(ctx context.Context, id string, fn func(*model.EntityRef)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.load(ctx)
	found := false
	for i := range list {
		if list[i].ID == id {
			stamp := list[i].RecordedAt
			fn(&list[i])
			list[i].RecordedAt = stamp
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	return c.save(ctx, list)
}

// Clear deletes the underlying record entirely.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(ctx, c.key); err != nil {
		c.log.Error(ctx, "clearing recency list failed", logger.Error(err))
		metrics.RecordStorageError("recency", "remove")
		return fmt.Errorf("clear recency list: %w", err)
	}
	metrics.UpdateRecencySize(0)
	return nil
}

// load reads and decodes the persisted list. Must be called with c.mu held.
func (c *Cache) load(ctx context.Context) []model.EntityRef {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.log.Error(ctx, "loading recency list failed", logger.Error(err))
		metrics.RecordStorageError("recency", "get")
		return nil
	}

	var list []model.EntityRef
	if err := json.Unmarshal(raw, &list); err != nil {
		// Corrupt payload degrades to an empty list rather than an error.
		c.log.Warn(ctx, "recency payload corrupt, treating as empty", logger.Error(err))
		return nil
	}
	return list
}

// save encodes and persists the whole list as one write. Must be called with
// c.mu held.
func (c *Cache) save(ctx context.Context, list []model.EntityRef) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode recency list: %w", err)
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		c.log.Error(ctx, "saving recency list failed", logger.Error(err))
		metrics.RecordStorageError("recency", "set")
		return fmt.Errorf("save recency list: %w", err)
	}
	return nil
}
