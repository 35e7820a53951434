// Package queue carries recalibration requests from triggers (scheduler,
// admin API, CLI) to the worker that runs them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/leaguelearn/pkg/metrics"
)

const defaultQueueCapacity = 16

// Trigger names what asked for a recalibration.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerAdmin    Trigger = "admin"
)

// RecalibrationRequest asks for one season to be recalibrated. JobID links
// the request to its status entry.
type RecalibrationRequest struct {
	JobID   string
	Season  int
	Trigger Trigger
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It never blocks; ErrFull or ErrClosed is
	// returned when the request was not accepted.
	Enqueue(ctx context.Context, r RecalibrationRequest) error

	// Dequeue returns the channel consumers read from. It is closed by Close.
	Dequeue() <-chan RecalibrationRequest

	// Len returns the current number of queued requests.
	Len() int

	// Close stops accepting requests and closes the dequeue channel.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan RecalibrationRequest
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan RecalibrationRequest, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r RecalibrationRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.requests <- r:
		metrics.UpdateQueueSize(len(q.requests))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan RecalibrationRequest {
	return q.requests
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len() int {
	size := len(q.requests)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue. Pending requests stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
