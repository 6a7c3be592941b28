// Package follow persists the teams and players the device follows. Like
// the recency cache it is a small JSON list rewritten whole on every
// mutation, degrading to empty when the payload is missing or corrupt.
package follow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

// Storage keys per entity kind.
const (
	teamsKey   = "following:teams"
	playersKey = "following:players"
)

// Store tracks followed entity ids per kind.
type Store struct {
	mu    sync.Mutex
	store storage.Store
	log   logger.Logger
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

// New creates a follow store over the given storage.
func New(st storage.Store, opts ...Option) *Store {
	s := &Store{store: st, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func keyFor(kind model.EntityKind) (string, error) {
	switch kind {
	case model.KindTeam:
		return teamsKey, nil
	case model.KindPlayer:
		return playersKey, nil
	default:
		return "", fmt.Errorf("unknown entity kind: %q", kind)
	}
}

// Follow adds id to the followed list for kind. Already-followed ids are
// left alone.
func (s *Store) Follow(ctx context.Context, kind model.EntityKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := keyFor(kind)
	if err != nil {
		return err
	}
	ids := s.load(ctx, key)
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.save(ctx, key, append(ids, id))
}

// Unfollow removes id from the followed list for kind. No error if absent.
func (s *Store) Unfollow(ctx context.Context, kind model.EntityKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := keyFor(kind)
	if err != nil {
		return err
	}
	ids := s.load(ctx, key)
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return s.save(ctx, key, filtered)
}

// Toggle flips the follow state for (kind, id) and returns the new state.
func (s *Store) Toggle(ctx context.Context, kind model.EntityKind, id string) (bool, error) {
	if s.IsFollowing(ctx, kind, id) {
		return false, s.Unfollow(ctx, kind, id)
	}
	return true, s.Follow(ctx, kind, id)
}

// IsFollowing reports whether (kind, id) is followed.
func (s *Store) IsFollowing(ctx context.Context, kind model.EntityKind, id string) bool {
	for _, existing := range s.List(ctx, kind) {
		if existing == id {
			return true
		}
	}
	return false
}

// List returns the followed ids for kind, oldest first.
func (s *Store) List(ctx context.Context, kind model.EntityKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := keyFor(kind)
	if err != nil {
		return nil
	}
	return s.load(ctx, key)
}

// load reads a JSON string-slice record. Must be called with s.mu held.
func (s *Store) load(ctx context.Context, key string) []string {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Error(ctx, "loading follow list failed", logger.String("key", key), logger.Error(err))
		metrics.RecordStorageError("follow", "get")
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.Warn(ctx, "follow payload corrupt, treating as empty", logger.String("key", key), logger.Error(err))
		return nil
	}
	return ids
}

// save persists a JSON string-slice record. Must be called with s.mu held.
func (s *Store) save(ctx context.Context, key string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode follow list: %w", err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		s.log.Error(ctx, "saving follow list failed", logger.String("key", key), logger.Error(err))
		metrics.RecordStorageError("follow", "set")
		return fmt.Errorf("save follow list: %w", err)
	}
	return nil
}
