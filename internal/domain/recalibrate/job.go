// Package recalibrate derives new per-class weight vectors from observed
// outcomes and appends them to the weight history.
package recalibrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/leaguelearn/internal/domain/classify"
	"github.com/okian/leaguelearn/internal/domain/inflight"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/weights"
	"github.com/okian/leaguelearn/pkg/logger"
	"github.com/okian/leaguelearn/pkg/metrics"
)

// Defaults for a Job.
const (
	DefaultMinFeedback = 25
	DefaultTimeout     = 10 * time.Minute
	// MaxReportedErrors caps Report.Errors; TotalErrors keeps the full count.
	MaxReportedErrors = 20
)

// FeedbackSource reads observed outcomes for one class and season.
type FeedbackSource interface {
	Feedback(ctx context.Context, class model.LeagueClass, season int) ([]model.Feedback, error)
}

// EvolutionStore reads and appends weight history.
type EvolutionStore interface {
	Evolution(ctx context.Context, class model.LeagueClass) ([]model.WeightEvolutionRecord, error)
	AppendEvolution(ctx context.Context, rec model.WeightEvolutionRecord) error
}

type classResult int

const (
	resultProcessed classResult = iota
	resultSkipped
)

// Job recalibrates every class for a season. Classes are independent: one
// failure is recorded and the run moves on.
type Job struct {
	feedback    FeedbackSource
	store       EvolutionStore
	guard       inflight.Guard
	classes     func() []model.LeagueClass
	minFeedback int
	params      Params
	timeout     time.Duration
	now         func() time.Time
	newID       func() string
	logger      logger.Logger
}

// NewJob creates a Job.
func NewJob(feedback FeedbackSource, store EvolutionStore, opts ...Option) *Job {
	j := &Job{
		feedback:    feedback,
		store:       store,
		classes:     classify.AllClasses,
		minFeedback: DefaultMinFeedback,
		params:      DefaultParams(),
		timeout:     DefaultTimeout,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run recalibrates all classes for season. Cancellation is checked between
// classes: the class in progress completes its write, then the run stops
// with Cancelled set. Per-class failures never make Run fail.
func (j *Job) Run(ctx context.Context, season int) (model.RecalibrationReport, error) {
	if season <= 0 {
		return model.RecalibrationReport{}, fmt.Errorf("%w: %d", ErrInvalidSeason, season)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	metrics.AddRecalibrationInFlight(1)
	defer metrics.AddRecalibrationInFlight(-1)

	report := model.RecalibrationReport{
		RunID:     j.newID(),
		Season:    season,
		Errors:    []model.ClassError{},
		StartedAt: j.now(),
	}
	log := j.logger.With(logger.String("run_id", report.RunID), logger.Int("season", season))
	log.Info(ctx, "recalibration started")

	for _, class := range j.classes() {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		res, err := j.runClass(ctx, class, season)
		switch {
		case err != nil && ctx.Err() != nil:
			// The unit was interrupted, not broken.
			report.Cancelled = true
		case err != nil:
			report.TotalErrors++
			if len(report.Errors) < MaxReportedErrors {
				report.Errors = append(report.Errors, model.ClassError{LeagueClass: class, Message: err.Error()})
			}
			metrics.RecordRecalibrationClass("error")
			log.Error(ctx, "class recalibration failed", logger.String("class", string(class)), logger.Error(err))
		case res == resultSkipped:
			report.ClassesSkipped++
			metrics.RecordRecalibrationClass("skipped")
		default:
			report.ClassesProcessed++
			metrics.RecordRecalibrationClass("processed")
		}
		if report.Cancelled {
			break
		}
	}

	report.FinishedAt = j.now()
	outcome := "completed"
	if report.Cancelled {
		outcome = "cancelled"
	}
	metrics.RecordRecalibrationRun(outcome, report.FinishedAt.Sub(report.StartedAt))
	log.Info(ctx, "recalibration finished",
		logger.Int("processed", report.ClassesProcessed),
		logger.Int("skipped", report.ClassesSkipped),
		logger.Int("errors", report.TotalErrors),
		logger.Bool("cancelled", report.Cancelled))
	return report, nil
}

func (j *Job) runClass(ctx context.Context, class model.LeagueClass, season int) (res classResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClassPanic, r)
		}
	}()

	if j.guard != nil {
		if !j.guard.TryAcquire(ctx, class, season) {
			return resultSkipped, nil
		}
		defer j.guard.Release(ctx, class, season)
	}

	feedback, err := j.feedback.Feedback(ctx, class, season)
	if err != nil {
		return resultSkipped, fmt.Errorf("load feedback: %w", err)
	}
	if len(feedback) < j.minFeedback {
		return resultSkipped, nil
	}

	prior, err := j.prior(ctx, class, season)
	if err != nil {
		return resultSkipped, err
	}

	next, err := Derive(prior, feedback, j.params)
	if err != nil {
		return resultSkipped, fmt.Errorf("derive weights: %w", err)
	}

	rec := model.WeightEvolutionRecord{
		ID:            j.newID(),
		LeagueClass:   class,
		Season:        season,
		Weights:       next,
		SchemaVersion: weights.SchemaVersion,
		CreatedAt:     j.now(),
	}
	// A started unit finishes its write even if the run is cancelled meanwhile.
	if err := j.store.AppendEvolution(context.WithoutCancel(ctx), rec); err != nil {
		return resultSkipped, fmt.Errorf("append evolution: %w", err)
	}
	return resultProcessed, nil
}

// prior is the newest vector recorded for season or earlier, or the
// baseline when there is none. Later seasons never feed a backfill.
func (j *Job) prior(ctx context.Context, class model.LeagueClass, season int) (model.WeightVector, error) {
	evolution, err := j.store.Evolution(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("load evolution: %w", err)
	}

	var (
		latest model.WeightEvolutionRecord
		found  bool
	)
	for _, rec := range evolution {
		if rec.Season > season {
			continue
		}
		if !found || rec.Season > latest.Season || (rec.Season == latest.Season && !rec.CreatedAt.Before(latest.CreatedAt)) {
			latest, found = rec, true
		}
	}
	if !found {
		return weights.Baseline(class), nil
	}
	return latest.Weights.Clone(), nil
}
