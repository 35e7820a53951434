package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/leaguelearn/internal/adapters/mq/queue"
	worker "github.com/okian/leaguelearn/internal/adapters/mq/worker"
	"github.com/okian/leaguelearn/internal/domain/jobstatus"
	model "github.com/okian/leaguelearn/internal/domain/model"
)

// Mock implementations for testing.
type mockQueue struct {
	ch chan queue.RecalibrationRequest
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan queue.RecalibrationRequest, 10)}
}

func (mq *mockQueue) Dequeue() <-chan queue.RecalibrationRequest { return mq.ch }

func (mq *mockQueue) Close() error {
	close(mq.ch)
	return nil
}

type mockJob struct {
	mu      sync.Mutex
	seasons []int
	err     error
	block   chan struct{}
}

func (m *mockJob) Run(ctx context.Context, season int) (model.RecalibrationReport, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasons = append(m.seasons, season)
	if m.err != nil {
		return model.RecalibrationReport{}, m.err
	}
	return model.RecalibrationReport{RunID: "run", Season: season, ClassesProcessed: 3}, nil
}

func (m *mockJob) runs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.seasons...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker consuming recalibration requests", t, func() {
		q := newMockQueue()
		job := &mockJob{}
		status := jobstatus.NewStore()
		w := worker.NewInMemoryWorker(q, job, status, worker.WithName("w0"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("a successful run completes the job status with its report", func() {
			st := status.Create(2024, "admin")
			q.ch <- queue.RecalibrationRequest{JobID: st.ID, Season: 2024, Trigger: queue.TriggerAdmin}

			ok := waitFor(func() bool {
				got, _ := status.Get(st.ID)
				return got.State == jobstatus.StateSucceeded
			})
			convey.So(ok, convey.ShouldBeTrue)
			got, _ := status.Get(st.ID)
			convey.So(got.Report, convey.ShouldNotBeNil)
			convey.So(got.Report.ClassesProcessed, convey.ShouldEqual, 3)
			convey.So(job.runs(), convey.ShouldResemble, []int{2024})
		})

		convey.Convey("a failed run marks the job failed", func() {
			job.err = errors.New("invalid season")
			st := status.Create(0, "admin")
			q.ch <- queue.RecalibrationRequest{JobID: st.ID, Season: 0}

			ok := waitFor(func() bool {
				got, _ := status.Get(st.ID)
				return got.State == jobstatus.StateFailed
			})
			convey.So(ok, convey.ShouldBeTrue)
			got, _ := status.Get(st.ID)
			convey.So(got.Error, convey.ShouldContainSubstring, "invalid season")
		})

		convey.Convey("an unknown job ID still runs", func() {
			q.ch <- queue.RecalibrationRequest{JobID: "missing", Season: 2023}
			convey.So(waitFor(func() bool { return len(job.runs()) == 1 }), convey.ShouldBeTrue)
		})

		convey.Convey("Shutdown stops the loop", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestWorker_StopsWhenQueueCloses(t *testing.T) {
	convey.Convey("When the queue closes the worker exits", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &mockJob{}, jobstatus.NewStore())
		go w.Run(context.Background())
		_ = q.Close()

		select {
		case <-w.Done():
			convey.So(true, convey.ShouldBeTrue)
		case <-time.After(time.Second):
			convey.So("worker did not exit", convey.ShouldBeEmpty)
		}
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of two workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		job := &mockJob{}
		status := jobstatus.NewStore()
		pool := worker.NewPool(2, q, job, status, nil)
		pool.Start(context.Background())

		convey.Convey("queued requests are drained on shutdown", func() {
			for _, season := range []int{2021, 2022, 2023} {
				st := status.Create(season, "admin")
				convey.So(q.Enqueue(context.Background(), queue.RecalibrationRequest{JobID: st.ID, Season: season}), convey.ShouldBeNil)
			}
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(job.runs(), convey.ShouldHaveLength, 3)
			for _, st := range status.List() {
				convey.So(st.State, convey.ShouldEqual, jobstatus.StateSucceeded)
			}
		})
	})
}
