// Package app wires the query pipeline, recency cache, vote store, and
// identity issuer into the search session consumed by presentation code.
package app

import (
	"context"
	"time"

	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/internal/domain/query"
	"github.com/statiq/scout/internal/domain/recency"
	"github.com/statiq/scout/internal/domain/vote"
	"github.com/statiq/scout/pkg/logger"
)

// enrichTimeout bounds the opportunistic detail fetch folded into a
// recency snapshot. Navigation never waits on it.
const enrichTimeout = 5 * time.Second

// Enricher fetches profile details the search payload lacks.
type Enricher interface {
	TeamDetail(ctx context.Context, id string) (model.EntityDetail, error)
}

// Identity hands out the stable device id.
type Identity interface {
	GetOrCreate(ctx context.Context) string
}

// Session is the composition root for one search view.
type Session struct {
	pipeline *query.Pipeline
	recent   *recency.Cache
	votes    *vote.Store
	identity Identity
	enricher Enricher
	log      logger.Logger
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithEnricher sets the detail fetcher used to fill in missing snapshot
// fields. Without one, snapshots are recorded as-is.
func WithEnricher(e Enricher) Option {
	return func(s *Session) {
		s.enricher = e
	}
}

// WithIdentity sets the device identity source.
func WithIdentity(id Identity) Option {
	return func(s *Session) {
		s.identity = id
	}
}

// WithVotes sets the vote store.
func WithVotes(v *vote.Store) Option {
	return func(s *Session) {
		s.votes = v
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Session over an already-configured pipeline and cache.
func New(pipeline *query.Pipeline, recent *recency.Cache, opts ...Option) *Session {
	s := &Session{
		pipeline: pipeline,
		recent:   recent,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInput feeds a keystroke to the pipeline. An empty input returns the
// view to the recency list; the two views are mutually exclusive.
func (s *Session) SetInput(ctx context.Context, text string) {
	s.pipeline.SetInput(ctx, text)
}

// Updates exposes the pipeline's visible state stream.
func (s *Session) Updates() <-chan query.Snapshot {
	return s.pipeline.Updates()
}

// Snapshot returns the pipeline's current visible state.
func (s *Session) Snapshot() query.Snapshot {
	return s.pipeline.Snapshot()
}

// Select records an interaction with a search result. It returns
// immediately so navigation is never blocked; enrichment and the cache
// write happen in the background. The returned channel closes when the
// write has settled, which only tests and shutdown paths care about.
func (s *Session) Select(ctx context.Context, res model.SearchResult) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ref := res.Ref()
		if res.Kind == model.KindTeam && s.enricher != nil {
			ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enrichTimeout)
			defer cancel()
			detail, err := s.enricher.TeamDetail(ectx, res.ID)
			if err != nil {
				s.log.Warn(ctx, "team enrichment failed, recording without color",
					logger.String("team", res.ID), logger.Error(err))
			} else {
				ref.Color = detail.Color
			}
		}

		if err := s.recent.Record(context.WithoutCancel(ctx), ref); err != nil {
			s.log.Error(ctx, "recording recent entity failed",
				logger.String("entity", ref.Key()), logger.Error(err))
		}
	}()
	return done
}

// Recent returns the recency list for the default (empty input) view. Team
// entries persisted without a color get an opportunistic enrichment fetch,
// patched back into the cache without changing their position.
func (s *Session) Recent(ctx context.Context) []model.EntityRef {
	list := s.recent.List(ctx)
	if s.enricher == nil {
		return list
	}

	for i := range list {
		e := list[i]
		if e.Kind != model.KindTeam || e.Color != "" {
			continue
		}
		detail, err := s.enricher.TeamDetail(ctx, e.ID)
		if err != nil {
			s.log.Warn(ctx, "recency enrichment failed",
				logger.String("team", e.ID), logger.Error(err))
			continue
		}
		list[i].Color = detail.Color
		if err := s.recent.Patch(ctx, e.ID, func(stored *model.EntityRef) {
			stored.Color = detail.Color
		}); err != nil {
			s.log.Error(ctx, "patching recency entry failed",
				logger.String("team", e.ID), logger.Error(err))
		}
	}
	return list
}

// ForgetRecent removes one entity from the recency list.
func (s *Session) ForgetRecent(ctx context.Context, id string) error {
	return s.recent.Remove(ctx, id)
}

// ClearRecent empties the recency list.
func (s *Session) ClearRecent(ctx context.Context) error {
	return s.recent.Clear(ctx)
}

// DeviceID returns the stable device identifier, creating it on first use.
func (s *Session) DeviceID(ctx context.Context) string {
	if s.identity == nil {
		return ""
	}
	return s.identity.GetOrCreate(ctx)
}

// Vote records the device's choice for a game.
func (s *Session) Vote(ctx context.Context, gameID string, choice model.Choice) error {
	if s.votes == nil {
		return nil
	}
	return s.votes.Put(ctx, gameID, choice)
}

// VoteFor reports the device's vote for a game, if any.
func (s *Session) VoteFor(ctx context.Context, gameID string) (model.Choice, bool) {
	if s.votes == nil {
		return "", false
	}
	return s.votes.Get(ctx, gameID)
}

// VotesFor returns the device's votes for a set of games in one batch.
func (s *Session) VotesFor(ctx context.Context, gameIDs []string) map[string]model.Choice {
	if s.votes == nil {
		return map[string]model.Choice{}
	}
	return s.votes.GetMany(ctx, gameIDs)
}

// Close shuts the pipeline down.
func (s *Session) Close() {
	s.pipeline.Close()
}
