// Package batch coordinates background analysis of uploaded company batches.
package batch

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// Queue is a fixed-size worker pool fed by a buffered channel. Panics inside
// jobs are recovered so one batch cannot take down the pool.
type Queue struct {
	jobs   chan Job
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewQueue starts a pool of workers draining a buffer of the given size.
func NewQueue(workers, buffer int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gCtx := errgroup.WithContext(ctx)

	q := &Queue{
		jobs:   make(chan Job, buffer),
		g:      g,
		ctx:    gCtx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			q.work()
			return nil
		})
	}

	return q
}

// Submit enqueues a job. It fails when the buffer is full or the queue has
// been shut down, rather than blocking the caller.
func (q *Queue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return eris.New("batch: queue is shut down")
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return eris.New("batch: queue is full")
	}
}

// Shutdown stops accepting jobs and waits for in-flight and buffered work to
// drain, or for ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = q.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return eris.Wrap(ctx.Err(), "batch: queue drain interrupted")
	}
}

func (q *Queue) work() {
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch: job panicked",
				zap.Any("panic", r),
			)
		}
	}()
	job(q.ctx)
}
