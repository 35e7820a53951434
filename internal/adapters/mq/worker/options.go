// Package worker runs queued recalibrations and schedules the weekly one.
package worker

import (
	"time"

	"github.com/okian/leaguelearn/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the time between scheduled runs.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSeasonStartMonth sets the month a new season begins.
func WithSeasonStartMonth(m time.Month) SchedulerOption {
	return func(s *Scheduler) {
		if m >= time.January && m <= time.December {
			s.startMonth = m
		}
	}
}

// WithSchedulerClock overrides time.Now.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
