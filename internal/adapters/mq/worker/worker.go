package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
)

const poolShutdownTimeout = 30 * time.Second

// Recalibrator runs one recalibration pass for a season.
type Recalibrator interface {
	Run(ctx context.Context, season int) (model.RecalibrationReport, error)
}

// StatusTracker records job progress for the admin API.
type StatusTracker interface {
	MarkRunning(id string) error
	Complete(id string, report model.RecalibrationReport) error
	Fail(id string, cause error) error
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue() <-chan queue.RecalibrationRequest
}

// Worker consumes recalibration requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current request.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a Queue.
type InMemoryWorker struct {
	queue  Queue
	job    Recalibrator
	status StatusTracker
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, job Recalibrator, status StatusTracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		job:      job,
		status:   status,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, req)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, req queue.RecalibrationRequest) {
	log := w.logger.With(
		logger.String("job_id", req.JobID),
		logger.Int("season", req.Season),
		logger.String("trigger", string(req.Trigger)))

	if err := w.status.MarkRunning(req.JobID); err != nil {
		log.Warn(ctx, "job status missing", logger.Error(err))
	}

	report, err := w.job.Run(ctx, req.Season)
	if err != nil {
		log.Error(ctx, "recalibration failed", logger.Error(err))
		if serr := w.status.Fail(req.JobID, err); serr != nil {
			log.Warn(ctx, "job status missing", logger.Error(serr))
		}
		return
	}
	if err := w.status.Complete(req.JobID, report); err != nil {
		log.Warn(ctx, "job status missing", logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers (at least one).
func NewPool(workerCount int, q Queue, job Recalibrator, status StatusTracker, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = logger.Discard()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, job, status,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(log))
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so workers drain pending requests, then waits
// for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown timed out: %w", shutdownCtx.Err())
	}
	return nil
}
