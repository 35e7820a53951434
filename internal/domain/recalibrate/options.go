package recalibrate

import (
	"time"

	"github.com/okian/leaguelearn/internal/domain/inflight"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
)

// Option applies a configuration option to a Job.
type Option func(*Job)

// WithGuard enables the per-(class, season) in-flight guard.
func WithGuard(g inflight.Guard) Option {
	return func(j *Job) {
		j.guard = g
	}
}

// WithMinFeedback sets how many feedback items a class needs to be recalibrated.
func WithMinFeedback(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.minFeedback = n
		}
	}
}

// WithParams sets the weight update parameters.
func WithParams(p Params) Option {
	return func(j *Job) {
		if p.LearningRate > 0 && p.MinWeight > 0 && p.MaxWeight >= p.MinWeight {
			j.params = p
		}
	}
}

// WithTimeout bounds a whole run.
func WithTimeout(d time.Duration) Option {
	return func(j *Job) {
		if d > 0 {
			j.timeout = d
		}
	}
}

// WithClock injects the time source used for record and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Job) {
		if now != nil {
			j.now = now
		}
	}
}

// WithIDGenerator injects the generator for run and record IDs.
func WithIDGenerator(gen func() string) Option {
	return func(j *Job) {
		if gen != nil {
			j.newID = gen
		}
	}
}

// WithClasses overrides the set of classes visited, in order.
func WithClasses(classes func() []model.LeagueClass) Option {
	return func(j *Job) {
		if classes != nil {
			j.classes = classes
		}
	}
}

// WithLogger sets the job's logger.
func WithLogger(l logger.Logger) Option {
	return func(j *Job) {
		if l != nil {
			j.logger = l
		}
	}
}
