package service

import (
	"hash/fnv"
	"sync"

	"github.com/timmy/mediafetch/internal/domain"
)

const defaultStoreShards = 32

// jobEntry holds one job's progress and log. Its mutex serialises the
// job's writer against readers of the same job only.
type jobEntry struct {
	mu    sync.RWMutex
	state domain.ProgressState
	log   []string
}

type storeShard struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

// JobStore is a concurrent registry of in-memory job state keyed by job ID.
// Jobs hash onto independent shards and every job has its own lock, so work
// on one job never waits on another.
type JobStore struct {
	shards []*storeShard
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	shards := make([]*storeShard, defaultStoreShards)
	for i := range shards {
		shards[i] = &storeShard{jobs: make(map[string]*jobEntry)}
	}
	return &JobStore{shards: shards}
}

func (s *JobStore) shard(id string) *storeShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *JobStore) entry(id string) (*jobEntry, bool) {
	sh := s.shard(id)
	sh.mu.RLock()
	e, ok := sh.jobs[id]
	sh.mu.RUnlock()
	return e, ok
}

// Create registers a job with the given initial state and an empty log.
// An existing job with the same ID is replaced.
func (s *JobStore) Create(id string, initial domain.ProgressState) {
	sh := s.shard(id)
	sh.mu.Lock()
	sh.jobs[id] = &jobEntry{state: initial, log: []string{}}
	sh.mu.Unlock()
}

// Update merges a fragment into the job's state. Status and message are
// always taken from the fragment; other fields only when it captured them.
// Status never moves backwards and a terminal job is left untouched.
// It reports whether the job existed and was updated.
func (s *JobStore) Update(id string, frag domain.ProgressFragment) bool {
	e, ok := s.entry(id)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status.IsTerminal() {
		return false
	}

	if frag.Status.Rank() >= e.state.Status.Rank() {
		e.state.Status = frag.Status
	}
	e.state.Message = frag.Message
	if frag.Percent != nil {
		e.state.Percent = *frag.Percent
	}
	if frag.Speed != "" {
		e.state.Speed = frag.Speed
	}
	if frag.ETA != "" {
		e.state.ETA = frag.ETA
	}
	if frag.Size != "" {
		e.state.Size = frag.Size
	}
	return true
}

// AppendLog appends a raw output line to the job's log.
func (s *JobStore) AppendLog(id, line string) bool {
	e, ok := s.entry(id)
	if !ok {
		return false
	}
	e.mu.Lock()
	e.log = append(e.log, line)
	e.mu.Unlock()
	return true
}

// Get returns a snapshot of the job's state. The boolean is false when the
// job never existed or has expired.
func (s *JobStore) Get(id string) (domain.ProgressState, bool) {
	e, ok := s.entry(id)
	if !ok {
		return domain.ProgressState{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state, true
}

// GetLog returns a copy of the job's log lines.
func (s *JobStore) GetLog(id string) ([]string, bool) {
	e, ok := s.entry(id)
	if !ok {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	lines := make([]string, len(e.log))
	copy(lines, e.log)
	return lines, true
}

// LogLen returns the number of log lines recorded for the job.
func (s *JobStore) LogLen(id string) int {
	e, ok := s.entry(id)
	if !ok {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.log)
}

// Delete removes the job's state and log. Deleting an absent job is a no-op
// and reports false.
func (s *JobStore) Delete(id string) bool {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.jobs[id]; !ok {
		return false
	}
	delete(sh.jobs, id)
	return true
}

// Len returns the number of jobs currently held.
func (s *JobStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.jobs)
		sh.mu.RUnlock()
	}
	return n
}

// CountActive returns how many held jobs have not reached a terminal state.
func (s *JobStore) CountActive() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.jobs {
			e.mu.RLock()
			if !e.state.Status.IsTerminal() {
				n++
			}
			e.mu.RUnlock()
		}
		sh.mu.RUnlock()
	}
	return n
}
