package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []Job
	q := New(8, func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job)
		mu.Unlock()
		return nil
	}, nil)
	q.Start(context.Background(), 2)

	require.NoError(t, q.Enqueue(Job{Type: JobExport, Entity: "categories"}))
	require.NoError(t, q.Enqueue(Job{Type: JobImport, Entity: "tasks", Path: "imports/x.xlsx"}))
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 2)
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	q := New(1, func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, nil)
	q.Start(context.Background(), 1)

	// Fill the worker and the one-slot buffer, then overflow.
	require.NoError(t, q.Enqueue(Job{Type: JobExport, Entity: "categories"}))
	var overflow error
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := q.Enqueue(Job{Type: JobExport, Entity: "projects"}); err != nil {
			overflow = err
			break
		}
	}
	assert.ErrorIs(t, overflow, ErrQueueFull)

	close(release)
	q.Stop()
}

func TestEnqueueAfterStop(t *testing.T) {
	q := New(1, func(ctx context.Context, job Job) error { return nil }, nil)
	q.Start(context.Background(), 1)
	q.Stop()

	assert.ErrorIs(t, q.Enqueue(Job{Type: JobExport, Entity: "tasks"}), ErrStopped)
}

func TestStopWaitsForQueuedJobs(t *testing.T) {
	var mu sync.Mutex
	done := 0
	q := New(16, func(ctx context.Context, job Job) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		done++
		mu.Unlock()
		return nil
	}, nil)
	q.Start(context.Background(), 3)

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(Job{Type: JobExport, Entity: "categories"}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, done)
}
