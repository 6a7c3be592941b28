package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/internal/domain/query"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeTimer is a scheduled call on the fakeClock.
type fakeTimer struct {
	clock   *fakeClock
	when    time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock drives pipeline timers from test code.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) query.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves logical time forward, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.fired && !t.stopped && t.when <= target && (next == nil || t.when < next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.when
		next.fired = true
		f := next.f
		c.mu.Unlock()
		f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// fakeSearcher records queries and optionally blocks them behind gates.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan struct{}
	results map[string][]model.SearchResult
	errs    map[string]error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		gates:   make(map[string]chan struct{}),
		results: make(map[string][]model.SearchResult),
		errs:    make(map[string]error),
	}
}

func (s *fakeSearcher) gate(q string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := make(chan struct{})
	s.gates[q] = g
	return g
}

func (s *fakeSearcher) respond(q string, results ...model.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[q] = results
}

func (s *fakeSearcher) fail(q string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[q] = err
}

func (s *fakeSearcher) Search(ctx context.Context, q string) ([]model.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	gate := s.gates[q]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[q]; err != nil {
		return nil, err
	}
	return s.results[q], nil
}

func (s *fakeSearcher) queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// eventually polls cond until it holds or the deadline passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func result(id string) model.SearchResult {
	return model.SearchResult{Kind: model.KindPlayer, ID: id, Name: "Player " + id}
}

func TestDebounceCoalescing(t *testing.T) {
	Convey("Given a pipeline with a 300ms debounce", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()
		searcher.respond("dane", result("p1"))

		p := query.New(searcher,
			query.WithClock(clock),
			query.WithDebounce(300*time.Millisecond),
			query.WithTimeout(5*time.Second))
		defer p.Close()

		Convey("When keystrokes arrive at t=0,50,100,150", func() {
			p.SetInput(ctx, "d")
			clock.Advance(50 * time.Millisecond)
			p.SetInput(ctx, "da")
			clock.Advance(50 * time.Millisecond)
			p.SetInput(ctx, "dan")
			clock.Advance(50 * time.Millisecond)
			p.SetInput(ctx, "dane")

			Convey("Then nothing dispatches before the window settles", func() {
				clock.Advance(299 * time.Millisecond)
				So(searcher.queries(), ShouldBeEmpty)
				So(p.State(), ShouldEqual, query.StatePending)
			})

			Convey("Then exactly one query fires, for the final value", func() {
				clock.Advance(300 * time.Millisecond)

				So(eventually(func() bool { return !p.Snapshot().Loading && p.Snapshot().Results != nil }), ShouldBeTrue)
				So(searcher.queries(), ShouldResemble, []string{"dane"})

				snap := p.Snapshot()
				So(snap.Query, ShouldEqual, "dane")
				So(snap.Results, ShouldHaveLength, 1)
				So(snap.Results[0].ID, ShouldEqual, "p1")
			})
		})
	})
}

func TestEmptyInput(t *testing.T) {
	Convey("Given a pipeline with pending input", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()

		p := query.New(searcher, query.WithClock(clock))
		defer p.Close()

		p.SetInput(ctx, "da")
		clock.Advance(100 * time.Millisecond)

		Convey("When the input is cleared before the window elapses", func() {
			p.SetInput(ctx, "")
			clock.Advance(time.Minute)

			Convey("Then no query is ever issued and the state is idle and empty", func() {
				So(searcher.queries(), ShouldBeEmpty)
				So(p.State(), ShouldEqual, query.StateIdle)

				snap := p.Snapshot()
				So(snap.Query, ShouldEqual, "")
				So(snap.Loading, ShouldBeFalse)
				So(snap.Results, ShouldBeNil)
			})
		})
	})
}

func TestStaleResultSuppression(t *testing.T) {
	Convey("Given query A in flight", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()
		gateA := searcher.gate("alpha")
		gateB := searcher.gate("beta")
		searcher.respond("alpha", result("a"))
		searcher.respond("beta", result("b"))

		p := query.New(searcher, query.WithClock(clock))
		defer p.Close()

		p.SetInput(ctx, "alpha")
		clock.Advance(300 * time.Millisecond)
		So(eventually(func() bool { return len(searcher.queries()) == 1 }), ShouldBeTrue)

		Convey("When input B supersedes A and B resolves first", func() {
			p.SetInput(ctx, "beta")
			clock.Advance(300 * time.Millisecond)
			So(eventually(func() bool { return len(searcher.queries()) == 2 }), ShouldBeTrue)

			close(gateB)
			So(eventually(func() bool {
				s := p.Snapshot()
				return !s.Loading && len(s.Results) == 1
			}), ShouldBeTrue)
			So(p.Snapshot().Results[0].ID, ShouldEqual, "b")

			Convey("Then A's late resolution changes nothing", func() {
				close(gateA)
				time.Sleep(20 * time.Millisecond)

				snap := p.Snapshot()
				So(snap.Query, ShouldEqual, "beta")
				So(snap.Results, ShouldHaveLength, 1)
				So(snap.Results[0].ID, ShouldEqual, "b")
			})
		})
	})
}

func TestTimeoutRace(t *testing.T) {
	Convey("Given a query that never resolves in time", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()
		gate := searcher.gate("slow")
		searcher.respond("slow", result("late"))

		p := query.New(searcher,
			query.WithClock(clock),
			query.WithTimeout(5*time.Second))
		defer p.Close()

		p.SetInput(ctx, "slow")
		clock.Advance(300 * time.Millisecond)
		So(eventually(func() bool { return len(searcher.queries()) == 1 }), ShouldBeTrue)
		So(p.State(), ShouldEqual, query.StateInFlight)

		Convey("When the deadline fires first", func() {
			clock.Advance(5 * time.Second)

			Convey("Then the visible state becomes an empty result set", func() {
				snap := p.Snapshot()
				So(snap.Loading, ShouldBeFalse)
				So(snap.Results, ShouldNotBeNil)
				So(snap.Results, ShouldBeEmpty)
				So(p.State(), ShouldEqual, query.StateIdle)
			})

			Convey("And the late resolution produces no further change", func() {
				close(gate)
				time.Sleep(20 * time.Millisecond)

				snap := p.Snapshot()
				So(snap.Results, ShouldBeEmpty)
			})
		})
	})
}

func TestSearchFailure(t *testing.T) {
	Convey("Given a searcher that fails", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()
		searcher.fail("broken", errors.New("connection refused"))

		p := query.New(searcher, query.WithClock(clock))
		defer p.Close()

		Convey("When the query dispatches", func() {
			p.SetInput(ctx, "broken")
			clock.Advance(300 * time.Millisecond)

			Convey("Then failure surfaces as an empty result set, not an error", func() {
				So(eventually(func() bool { return !p.Snapshot().Loading && p.Snapshot().Results != nil }), ShouldBeTrue)

				snap := p.Snapshot()
				So(snap.Results, ShouldBeEmpty)
				So(p.State(), ShouldEqual, query.StateIdle)
			})
		})
	})
}

func TestUpdatesCoalesce(t *testing.T) {
	Convey("Given a pipeline with a slow consumer", t, func() {
		ctx := context.Background()
		clock := &fakeClock{}
		searcher := newFakeSearcher()
		searcher.respond("q", result("r1"))

		p := query.New(searcher, query.WithClock(clock))

		p.SetInput(ctx, "q")
		clock.Advance(300 * time.Millisecond)
		So(eventually(func() bool { return !p.Snapshot().Loading && p.Snapshot().Results != nil }), ShouldBeTrue)

		Convey("Then the channel holds only the latest snapshot", func() {
			snap := <-p.Updates()
			So(snap.Loading, ShouldBeFalse)
			So(snap.Results, ShouldHaveLength, 1)
		})

		Convey("Then Close closes the stream", func() {
			p.Close()
			_, open := <-p.Updates()
			_ = open // drains any last coalesced snapshot
			_, open = <-p.Updates()
			So(open, ShouldBeFalse)

			// Input after close is ignored.
			p.SetInput(ctx, "ignored")
			So(p.State(), ShouldEqual, query.StateIdle)
		})
	})
}
