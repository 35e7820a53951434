// Package jobstatus tracks recalibration runs for the admin surface.
//
// Entries are evicted only by an explicit Sweep call against an injected
// clock; nothing runs in the background.
package jobstatus

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/leaguelearn/internal/domain/model"
)

// ErrUnknownJob is returned when updating a job that does not exist.
var ErrUnknownJob = errors.New("unknown job")

// State is a job's lifecycle stage.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Finished reports whether the job reached a terminal state.
func (s State) Finished() bool {
	return s == StateSucceeded || s == StateFailed
}

// Status is a snapshot of one job.
type Status struct {
	ID        string                     `json:"id"`
	Season    int                        `json:"season"`
	Trigger   string                     `json:"trigger"`
	State     State                      `json:"state"`
	Report    *model.RecalibrationReport `json:"report,omitempty"`
	Error     string                     `json:"error,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTTL sets how long finished jobs survive a Sweep.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// Store is an in-memory job registry.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]Status
	ttl  time.Duration
	now  func() time.Time
}

// NewStore creates an empty Store with a 24h TTL and the wall clock.
func NewStore(opts ...Option) *Store {
	s := &Store{
		jobs: make(map[string]Status),
		ttl:  24 * time.Hour,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a queued job.
func (s *Store) Create(season int, trigger string) Status {
	now := s.now()
	st := Status{
		ID:        uuid.NewString(),
		Season:    season,
		Trigger:   trigger,
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[st.ID] = st
	s.mu.Unlock()
	return st
}

// MarkRunning moves a job to running.
func (s *Store) MarkRunning(id string) error {
	return s.update(id, func(st *Status) { st.State = StateRunning })
}

// Complete stores the run's report.
func (s *Store) Complete(id string, report model.RecalibrationReport) error {
	return s.update(id, func(st *Status) {
		st.State = StateSucceeded
		st.Report = &report
	})
}

// Fail records a run that could not start or finish.
func (s *Store) Fail(id string, cause error) error {
	return s.update(id, func(st *Status) {
		st.State = StateFailed
		if cause != nil {
			st.Error = cause.Error()
		}
	})
}

func (s *Store) update(id string, fn func(*Status)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.jobs[id]
	if !ok {
		return ErrUnknownJob
	}
	fn(&st)
	st.UpdatedAt = s.now()
	s.jobs[id] = st
	return nil
}

// Get returns the job with id.
func (s *Store) Get(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.jobs[id]
	return st, ok
}

// List returns all jobs, oldest first.
func (s *Store) List() []Status {
	s.mu.RLock()
	out := make([]Status, 0, len(s.jobs))
	for _, st := range s.jobs {
		out = append(out, st)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Sweep evicts finished jobs whose last update is at least TTL old and
// returns how many were removed. Queued and running jobs are kept.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.jobs {
		if st.State.Finished() && !st.UpdatedAt.After(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
