// Package queue is an in-process job queue: an explicit job description
// placed on a buffered channel, consumed by a worker pool. Delivery is
// at-least-once with no idempotency guarantee; reprocessing a failed import
// can create duplicate rows, which the pipeline does not guard against.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// JobType discriminates queued work.
type JobType string

const (
	JobExport JobType = "export"
	JobImport JobType = "import"
)

// Job describes one unit of background work. Path is the file-store key of
// the uploaded spreadsheet for imports; exports carry only the entity.
type Job struct {
	Type   JobType
	Entity string
	Path   string
}

// Handler executes one job.
type Handler func(ctx context.Context, job Job) error

// ErrQueueFull is returned when the buffer has no room for another job.
var ErrQueueFull = errors.New("queue is full")

// ErrStopped is returned when enqueueing after Stop.
var ErrStopped = errors.New("queue is stopped")

// Queue dispatches jobs to a fixed worker pool.
type Queue struct {
	jobs    chan Job
	handler Handler
	log     *slog.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New builds a queue with the given buffer size and handler.
func New(size int, handler Handler, log *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		jobs:    make(chan Job, size),
		handler: handler,
		log:     log,
	}
}

// Start launches the worker pool. Workers drain the channel until Stop;
// ctx is passed through to handlers for cancellation of in-flight work.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.jobs {
		if err := q.handler(ctx, job); err != nil {
			q.log.Error("queue: job failed", "type", job.Type, "entity", job.Entity, "path", job.Path, "error", err)
		}
	}
}

// Enqueue places a job on the buffer without blocking. The caller gets an
// acknowledgment only that the job is queued, never its outcome.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}
