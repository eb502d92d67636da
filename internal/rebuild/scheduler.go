// Package rebuild debounces requests to rebuild the walkable surface of a
// platform. Each platform runs a trailing debounce: Idle, then Pending while
// its window runs, then Idle again after one OnSettled callback.
package rebuild

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// State is the debounce state of one platform.
type State int

// Debounce states.
const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Guard reports whether a platform may be armed. Inactive or destroyed
// platforms must report false.
type Guard func(moduleID string) bool

// Scheduler tracks one deadline per pending platform. It owns no goroutine:
// callers drive it with Poll, or with Run when there is no frame loop.
type Scheduler struct {
	mu        sync.Mutex
	clock     types.Clock
	window    time.Duration
	onSettled types.SettledFunc
	guard     Guard
	pending   map[string]time.Time
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source. The default is SystemClock.
func WithClock(c types.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithGuard sets the predicate consulted on arm and on fire.
func WithGuard(g Guard) Option {
	return func(s *Scheduler) { s.guard = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler that calls onSettled once per platform
// after window has passed without a re-arm. A nil onSettled is allowed; the
// state machine still runs.
func NewScheduler(window time.Duration, onSettled types.SettledFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     SystemClock{},
		window:    window,
		onSettled: onSettled,
		pending:   make(map[string]time.Time),
		logger:    slog.Default().With(slog.String("component", "rebuild")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the debounce window.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// Arm starts or restarts the debounce window for moduleID. It reports false
// when the guard rejects the platform.
func (s *Scheduler) Arm(moduleID string) bool {
	if s.guard != nil && !s.guard(moduleID) {
		s.logger.Debug("arm rejected", slog.String("module", moduleID))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[moduleID] = s.clock.Now().Add(s.window)
	return true
}

// Cancel drops any pending window for moduleID. It reports whether one was
// pending.
func (s *Scheduler) Cancel(moduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[moduleID]
	delete(s.pending, moduleID)
	return ok
}

// CancelAll drops every pending window.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]time.Time)
}

// State returns the debounce state of moduleID.
func (s *Scheduler) State(moduleID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[moduleID]; ok {
		return Pending
	}
	return Idle
}

// Pending returns the sorted IDs of platforms with a running window.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Next returns the earliest pending deadline.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	found := false
	for _, at := range s.pending {
		if !found || at.Before(next) {
			next, found = at, true
		}
	}
	return next, found
}

type due struct {
	id string
	at time.Time
}

// Poll fires every window that has expired at the clock's current time and
// returns the IDs fired, ordered by deadline then ID. Callbacks run on the
// caller's goroutine after the lock is released, so they may re-arm.
func (s *Scheduler) Poll() []string {
	now := s.clock.Now()

	s.mu.Lock()
	var ready []due
	for id, at := range s.pending {
		if !at.After(now) {
			ready = append(ready, due{id: id, at: at})
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].at.Equal(ready[j].at) {
			return ready[i].at.Before(ready[j].at)
		}
		return ready[i].id < ready[j].id
	})

	fired := make([]string, 0, len(ready))
	for _, d := range ready {
		if s.guard != nil && !s.guard(d.id) {
			s.logger.Debug("dropping settle for inactive module", slog.String("module", d.id))
			continue
		}
		s.logger.Debug("module settled", slog.String("module", d.id))
		if s.onSettled != nil {
			s.onSettled(d.id)
		}
		fired = append(fired, d.id)
	}
	return fired
}

// Run polls every interval until ctx is done or nothing is pending. It
// returns ctx.Err() on cancellation and nil once every window has fired.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = 10 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		s.Poll()
		if _, ok := s.Next(); !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
