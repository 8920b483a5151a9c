package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks from a
// task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	taskQueue   QueueReader
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	// errorHandler is called when a task execution fails.
	// If nil, errors are only logged.
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int
}

// NewWorkerPool creates a new worker pool with the specified configuration.
func NewWorkerPool(taskQueue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With(slog.String("component", "worker_pool")),
	}
}

// SetErrorHandler allows setting a custom error handler for task execution
// failures.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines. It returns immediately; workers run
// until the queue's channel closes.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started", "worker_count", p.workerCount)
}

// Stop waits for the workers to drain the queue and exit. Close the queue
// first; tasks already buffered are processed to completion. If ctx expires
// before the drain finishes, in-flight work is cancelled and the remaining
// buffered tasks are discarded without executing.
func (p *WorkerPool) Stop(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		p.logger.Warn("drain deadline reached, aborting remaining tasks")
		p.cancel()
		<-drained
	}

	p.logger.Info("worker pool stopped")
}

// worker consumes tasks from the queue until the channel closes. After an
// abort it keeps draining but discards tasks instead of running them.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for task := range p.taskQueue.GetChannel() {
		if p.ctx.Err() != nil {
			p.logger.Warn("discarding task, shutdown aborted",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"worker_id", id)
			continue
		}
		p.processTask(task, id)
	}

	p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}

// processTask handles execution of a single task.
func (p *WorkerPool) processTask(task Task, workerID int) {
	logger := p.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	logger.Info("processing task")

	if err := task.Execute(p.ctx); err != nil {
		logger.Error("task execution failed", "error", err)
		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
		return
	}

	logger.Info("task completed successfully")
}
