package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolProcessesTasks(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(10, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, slog.Default())

	var mu sync.Mutex
	executed := make(map[string]bool)
	done := make(chan struct{}, 5)

	for i := 0; i < 5; i++ {
		task := newMockTask()
		task.execFn = func(_ context.Context) error {
			mu.Lock()
			executed[task.id.String()] = true
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
		require.NoError(t, queue.Enqueue(task))
	}

	pool.Start()
	defer func() {
		queue.Close()
		pool.Stop(context.Background())
	}()

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for task execution")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, executed, 5)
}

func TestWorkerPoolErrorHandler(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, slog.Default())

	taskErr := errors.New("boom")
	failing := newMockTask()
	failing.execFn = func(_ context.Context) error {
		return taskErr
	}

	handled := make(chan error, 1)
	pool.SetErrorHandler(func(_ Task, err error) {
		handled <- err
	})

	require.NoError(t, queue.Enqueue(failing))
	pool.Start()
	defer func() {
		queue.Close()
		pool.Stop(context.Background())
	}()

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, taskErr)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error handler")
	}
}

func TestWorkerPoolStopsOnQueueClose(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, slog.Default())

	pool.Start()
	queue.Close()

	stopped := make(chan struct{})
	go func() {
		pool.Stop(context.Background())
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pool shutdown")
	}
}

func TestWorkerPoolStopDrainsBufferedTasks(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(10, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, slog.Default())

	var mu sync.Mutex
	var executed int
	for i := 0; i < 5; i++ {
		task := newMockTask()
		task.execFn = func(_ context.Context) error {
			mu.Lock()
			executed++
			mu.Unlock()
			return nil
		}
		require.NoError(t, queue.Enqueue(task))
	}

	// Close before the workers start so every task is already buffered;
	// Stop must still run them all.
	queue.Close()
	pool.Start()
	pool.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, executed)
}

func TestWorkerPoolStopDeadlineAbortsRemainingTasks(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(10, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, slog.Default())

	started := make(chan struct{})
	blocking := newMockTask()
	blocking.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}
	require.NoError(t, queue.Enqueue(blocking))

	var mu sync.Mutex
	var executed int
	for i := 0; i < 3; i++ {
		task := newMockTask()
		task.execFn = func(_ context.Context) error {
			mu.Lock()
			executed++
			mu.Unlock()
			return nil
		}
		require.NoError(t, queue.Enqueue(task))
	}

	pool.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the blocking task to start")
	}

	queue.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pool.Stop(ctx)

	// The abort cancelled the in-flight task and discarded the rest.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, executed)
}

func TestWorkerPoolDefaultsInvalidWorkerCount(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, slog.Default())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, slog.Default())
	assert.Equal(t, 1, pool.workerCount)
}
