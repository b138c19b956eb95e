package service

import (
	"context"
	"time"

	"github.com/timmy/mediafetch/internal/domain"
)

// DefaultPollInterval is the reference cadence for progress polling.
const DefaultPollInterval = 500 * time.Millisecond

// Publisher turns job store contents into per-observer progress streams.
type Publisher struct {
	store    *JobStore
	interval time.Duration
}

// NewPublisher creates a publisher polling store at interval.
// A non-positive interval falls back to DefaultPollInterval.
func NewPublisher(store *JobStore, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Publisher{store: store, interval: interval}
}

// Stream returns a channel of progress snapshots for id, starting from the
// job's current state. Unchanged states are not repeated. The channel is
// closed after a single not_found snapshot for unknown jobs, after exactly
// one terminal snapshot, or when ctx is cancelled.
func (p *Publisher) Stream(ctx context.Context, id string) <-chan domain.ProgressState {
	out := make(chan domain.ProgressState)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last domain.ProgressState
		emitted := false

		send := func(state domain.ProgressState) bool {
			select {
			case out <- state:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			state, ok := p.store.Get(id)
			if !ok {
				send(domain.NotFoundState())
				return
			}

			// The terminal state goes out exactly once, whether or not it
			// differs from the previous emission.
			if state.Status.IsTerminal() {
				send(state)
				return
			}

			if !emitted || state != last {
				if !send(state) {
					return
				}
				last = state
				emitted = true
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
