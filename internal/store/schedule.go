package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
)

// ScheduleStore defines the interface for schedule document persistence.
// Entries are serialized as a single document alongside the row metadata.
type ScheduleStore interface {
	// Create saves a new schedule.
	// Returns ErrInvalidEntity if the user or term does not exist.
	Create(ctx context.Context, schedule *domain.Schedule) error

	// GetByID retrieves a schedule with its entries.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)

	// ListByUser returns a user's schedules, newest first. A non-nil termID
	// restricts the listing to that term.
	ListByUser(ctx context.Context, userID uuid.UUID, termID *uuid.UUID) ([]domain.Schedule, error)

	// Update persists name, draft flag, and the full entry document.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	Update(ctx context.Context, schedule *domain.Schedule) error

	// Delete removes a schedule.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new ScheduleStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ScheduleStore
}
