// Package query implements the incremental search pipeline: keystrokes are
// debounced, each settled input dispatches exactly one remote query, and the
// query races a deadline with first-settled-wins semantics.
//
// Only the attempt matching the latest input may ever touch the visible
// state; superseded and late attempts are discarded unconditionally. That
// discipline is enforced with a monotonically increasing attempt token
// checked under the pipeline mutex at every settlement point.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/pkg/logger"
	"github.com/statiq/scout/pkg/metrics"
)

// Default tuning. Both are product-observed values; override via options.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// Searcher issues a remote query. Implementations may be slow and may fail;
// the pipeline contains both.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// State names the pipeline's phase for the current input.
type State int

const (
	// StateIdle means no query activity: empty input or a settled attempt.
	StateIdle State = iota
	// StatePending means the debounce timer is running.
	StatePending
	// StateInFlight means a query has been dispatched and not yet settled.
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Snapshot is the visible search state handed to presentation code.
// Results is nil until a query for the current input settles; a failed or
// timed-out query settles to an empty, non-nil slice indistinguishable from
// a genuinely empty result set.
type Snapshot struct {
	Query   string
	Loading bool
	Results []model.SearchResult
}

// Pipeline is one logical query session. One instance per mounted search
// view; all methods are safe for concurrent use.
type Pipeline struct {
	mu       sync.Mutex
	searcher Searcher
	clock    Clock
	debounce time.Duration
	timeout  time.Duration
	log      logger.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	state         State
	token         uint64
	debounceTimer Timer
	snap          Snapshot
	updates       chan Snapshot
	closed        bool
}

// New creates a Pipeline over the given searcher.
func New(searcher Searcher, opts ...Option) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		searcher: searcher,
		clock:    SystemClock(),
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		log:      logger.Nop(),
		baseCtx:  ctx,
		cancel:   cancel,
		updates:  make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetInput feeds the pipeline one keystroke's worth of input. Any pending
// debounce timer is cancelled and any in-flight attempt is superseded.
// Empty input settles immediately to an empty snapshot without dispatching.
func (p *Pipeline) SetInput(_ context.Context, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	if p.debounceTimer != nil {
		if p.debounceTimer.Stop() {
			metrics.RecordDebounceCancel()
		}
		p.debounceTimer = nil
	}
	if p.state == StateInFlight {
		metrics.RecordSearchSuperseded()
	}
	// Invalidate whatever attempt may still settle later.
	p.token++

	if text == "" {
		p.state = StateIdle
		p.snap = Snapshot{}
		p.publishLocked()
		return
	}

	p.state = StatePending
	tok := p.token
	p.debounceTimer = p.clock.AfterFunc(p.debounce, func() {
		p.fire(tok, text)
	})
}

// fire runs when a debounce window elapses undisturbed: it transitions to
// in-flight and dispatches the query racing its deadline.
func (p *Pipeline) fire(tok uint64, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || tok != p.token {
		return
	}

	p.state = StateInFlight
	p.debounceTimer = nil
	p.snap = Snapshot{Query: text, Loading: true, Results: p.snap.Results}
	p.publishLocked()

	metrics.RecordSearchIssued()
	started := time.Now()

	deadline := p.clock.AfterFunc(p.timeout, func() {
		p.settle(tok, text, nil, ErrTimeout, started, nil)
	})

	go func() {
		results, err := p.searcher.Search(p.baseCtx, text)
		p.settle(tok, text, results, err, started, deadline)
	}()
}

// settle applies the outcome of one race arm. The first arm to arrive for
// the current token wins and invalidates the other; stale arms return
// without touching any shared state.
func (p *Pipeline) settle(tok uint64, text string, results []model.SearchResult, err error, started time.Time, deadline Timer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if deadline != nil {
		deadline.Stop()
	}

	if p.closed || tok != p.token {
		// Superseded or lost the race; the result is discarded entirely.
		p.log.Debug(p.baseCtx, "discarding stale search settlement",
			logger.String("query", text), logger.Bool("failed", err != nil))
		return
	}
	p.token++
	p.state = StateIdle

	switch {
	case err == nil:
		metrics.RecordSearchSucceeded()
		metrics.RecordSearchLatency(time.Since(started).Seconds())
		if results == nil {
			results = []model.SearchResult{}
		}
		p.snap = Snapshot{Query: text, Loading: false, Results: results}
	case errors.Is(err, ErrTimeout):
		metrics.RecordSearchTimedOut()
		p.log.Warn(p.baseCtx, "search timed out",
			logger.String("query", text), logger.Duration("timeout", p.timeout))
		p.snap = Snapshot{Query: text, Loading: false, Results: []model.SearchResult{}}
	default:
		metrics.RecordSearchFailed()
		p.log.Error(p.baseCtx, "search failed",
			logger.String("query", text), logger.Error(err))
		p.snap = Snapshot{Query: text, Loading: false, Results: []model.SearchResult{}}
	}
	p.publishLocked()
}

// Snapshot returns the current visible state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// State returns the pipeline's current phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Updates returns the snapshot stream. The channel coalesces: a slow
// consumer observes only the latest snapshot, never a stale one. The channel
// closes when the pipeline closes.
func (p *Pipeline) Updates() <-chan Snapshot {
	return p.updates
}

// publishLocked pushes the current snapshot, replacing any undelivered one.
// Must be called with p.mu held and p.closed false.
func (p *Pipeline) publishLocked() {
	for {
		select {
		case p.updates <- p.snap:
			return
		default:
			select {
			case <-p.updates:
			default:
			}
		}
	}
}

// Close stops timers, abandons any in-flight attempt, and closes the update
// stream. Late settlements after Close are no-ops.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
		p.debounceTimer = nil
	}
	p.cancel()
	close(p.updates)
}
