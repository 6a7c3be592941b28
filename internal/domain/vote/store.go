// Package vote stores the device's game votes: at most one choice per game,
// last write wins. The product locks votes after the first decision, but
// that rule lives in the presentation layer; this store supports overwrite
// for debug and admin tooling.
package vote

import (
	"context"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/domain/facts"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

// Prefix namespaces vote records in the underlying store.
const Prefix = "vote:"

// Store persists one Choice per game id.
type Store struct {
	facts *facts.Store
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

// New creates a vote store over the given storage.
func New(st storage.Store, opts ...Option) *Store {
	s := &Store{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.facts = facts.New(st, Prefix, facts.WithLogger(s.log))
	return s
}

// Put records the device's vote for a game, overwriting silently.
func (s *Store) Put(ctx context.Context, gameID string, choice model.Choice) error {
	if err := s.facts.Put(ctx, gameID, string(choice)); err != nil {
		return err
	}
	metrics.RecordVoteStored()
	s.log.Debug(ctx, "vote stored", logger.String("game", gameID), logger.String("choice", string(choice)))
	return nil
}

// Get returns the vote for a game. The second return is false when the
// device has not voted; that state is distinct from any Choice.
func (s *Store) Get(ctx context.Context, gameID string) (model.Choice, bool) {
	raw, ok := s.facts.Get(ctx, gameID)
	if !ok {
		return "", false
	}
	choice, err := model.ParseChoice(raw)
	if err != nil {
		// A corrupt record counts as undecided.
		s.log.Warn(ctx, "discarding malformed vote", logger.String("game", gameID), logger.Error(err))
		return "", false
	}
	return choice, true
}

// Has reports whether the device has voted on a game.
func (s *Store) Has(ctx context.Context, gameID string) bool {
	_, ok := s.Get(ctx, gameID)
	return ok
}

// GetMany returns votes for the given games in one batched read. Games with
// no vote are omitted from the result.
func (s *Store) GetMany(ctx context.Context, gameIDs []string) map[string]model.Choice {
	raw := s.facts.GetMany(ctx, gameIDs)
	out := make(map[string]model.Choice, len(raw))
	for id, v := range raw {
		choice, err := model.ParseChoice(v)
		if err != nil {
			s.log.Warn(ctx, "discarding malformed vote", logger.String("game", id), logger.Error(err))
			continue
		}
		out[id] = choice
	}
	return out
}

// Remove deletes the vote for one game. No error if absent.
func (s *Store) Remove(ctx context.Context, gameID string) error {
	if err := s.facts.Remove(ctx, gameID); err != nil {
		return err
	}
	metrics.RecordVoteRemoved()
	return nil
}

// RemoveAll deletes every stored vote and returns how many were removed.
// Debug/admin tooling only.
func (s *Store) RemoveAll(ctx context.Context) (int, error) {
	return s.facts.RemoveAll(ctx)
}

// GameIDs lists every game the device has voted on.
func (s *Store) GameIDs(ctx context.Context) []string {
	return s.facts.Keys(ctx)
}
