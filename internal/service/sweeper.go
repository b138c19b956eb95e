package service

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/mediafetch/internal/logger"
)

// DefaultRetention is how long finished jobs stay queryable.
const DefaultRetention = time.Hour

// Sweeper removes finished jobs from the store once their retention window
// has elapsed. Each scheduled removal is an independent timer.
type Sweeper struct {
	store     *JobStore
	retention time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewSweeper creates a sweeper bound to store. A non-positive retention
// falls back to DefaultRetention.
func NewSweeper(store *JobStore, retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{
		store:     store,
		retention: retention,
		timers:    make(map[string]*time.Timer),
	}
}

// Retention returns the configured retention window.
func (s *Sweeper) Retention() time.Duration {
	return s.retention
}

// Schedule arms removal of id after the retention window. Scheduling an id
// again restarts its window. It never blocks on the removal itself.
func (s *Sweeper) Schedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}

	// The callback may fire before AfterFunc returns, so it reads the
	// timer through owner under s.mu.
	owner := new(*time.Timer)
	*owner = time.AfterFunc(s.retention, func() {
		s.expire(id, owner)
	})
	s.timers[id] = *owner
}

func (s *Sweeper) expire(id string, owner **time.Timer) {
	s.mu.Lock()
	// A newer Schedule call owns the id now.
	if s.timers[id] != *owner {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	if s.store.Delete(id) {
		ctx := logger.SetDownloadID(context.Background(), id)
		logger.CtxDebug(ctx, "Expired download state: retention=%s", s.retention)
	}
}

// Pending returns the number of armed removals.
func (s *Sweeper) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all pending removals. Later Schedule calls are ignored.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
}
