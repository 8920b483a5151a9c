// Package task provides the background processing machinery: a buffered
// task queue consumed by a worker pool, and the task implementations that
// run on it.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeCatalogImport is the task type for catalog feed ingestion.
	TaskTypeCatalogImport = "catalog_import"

	// TaskTypeSessionPurge is the task type for expired session cleanup.
	TaskTypeSessionPurge = "session_purge"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic. Tasks own their progress bookkeeping;
	// the worker pool only logs and reports failures.
	Execute(ctx context.Context) error
}

// QueueReader provides read-only access to the task channel, allowing
// workers to consume tasks without the ability to enqueue.
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// QueueWriter provides write access to the task queue, allowing services
// to enqueue tasks for processing.
type QueueWriter interface {
	// Enqueue adds a task to the queue for processing.
	// Returns an error if the queue is full or closed.
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission.
	Close()
}
