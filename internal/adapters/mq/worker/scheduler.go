package worker

import (
	"context"
	"time"

	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/domain/jobstatus"
	"github.com/okian/leaguelearn/pkg/logger"
)

const defaultInterval = 7 * 24 * time.Hour

// Enqueuer accepts recalibration requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, r queue.RecalibrationRequest) error
}

// JobRegistry creates and sweeps status entries.
type JobRegistry interface {
	Create(season int, trigger string) jobstatus.Status
	Fail(id string, cause error) error
	Sweep() int
}

// SeasonFor returns the season in progress at t. Months before startMonth
// belong to the previous year's season.
func SeasonFor(t time.Time, startMonth time.Month) int {
	if t.Month() < startMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// Scheduler enqueues a recalibration of the current season every interval.
type Scheduler struct {
	queue      Enqueuer
	jobs       JobRegistry
	interval   time.Duration
	startMonth time.Month
	now        func() time.Time
	logger     logger.Logger
}

// NewScheduler creates a weekly scheduler by default.
func NewScheduler(q Enqueuer, jobs JobRegistry, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		queue:      q,
		jobs:       jobs,
		interval:   defaultInterval,
		startMonth: time.September,
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s
}

// Interval returns the scheduling period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick sweeps expired job statuses and enqueues one recalibration.
// It returns the created job, which is already failed if the queue
// rejected it.
func (s *Scheduler) Tick(ctx context.Context) jobstatus.Status {
	if n := s.jobs.Sweep(); n > 0 {
		s.logger.Debug(ctx, "swept job statuses", logger.Int("count", n))
	}

	season := SeasonFor(s.now(), s.startMonth)
	st := s.jobs.Create(season, string(queue.TriggerSchedule))
	err := s.queue.Enqueue(ctx, queue.RecalibrationRequest{
		JobID:   st.ID,
		Season:  season,
		Trigger: queue.TriggerSchedule,
	})
	if err != nil {
		s.logger.Warn(ctx, "scheduled recalibration rejected",
			logger.Int("season", season), logger.Error(err))
		_ = s.jobs.Fail(st.ID, err)
		st.State = jobstatus.StateFailed
		st.Error = err.Error()
		return st
	}
	s.logger.Info(ctx, "scheduled recalibration enqueued",
		logger.String("job_id", st.ID), logger.Int("season", season))
	return st
}
