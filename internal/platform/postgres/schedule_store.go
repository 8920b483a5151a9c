package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/store"
)

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend. The entry list is
// serialized to a JSONB document on the schedule row, matching how the
// builder treats a schedule: one document saved and loaded whole.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the
// ScheduleStore interface.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore interface
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// Create implements store.ScheduleStore.Create
// Returns store.ErrInvalidEntity if the user or term does not exist.
func (s *PostgresScheduleStore) Create(ctx context.Context, schedule *domain.Schedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	entries, err := marshalEntries(schedule.Entries)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedules (id, user_id, term_id, name, draft, entries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		schedule.ID,
		schedule.UserID,
		schedule.TermID,
		schedule.Name,
		schedule.Draft,
		entries,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during schedule creation",
				slog.String("schedule_id", schedule.ID.String()),
				slog.String("user_id", schedule.UserID.String()))
			return store.ErrInvalidEntity
		}
		log.Error("failed to create schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	log.Info("schedule created successfully",
		slog.String("schedule_id", schedule.ID.String()),
		slog.String("user_id", schedule.UserID.String()))
	return nil
}

// GetByID implements store.ScheduleStore.GetByID
// Returns store.ErrScheduleNotFound if the schedule does not exist.
func (s *PostgresScheduleStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, term_id, name, draft, entries, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`

	var schedule domain.Schedule
	var entries []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.TermID,
		&schedule.Name,
		&schedule.Draft,
		&entries,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule not found", slog.String("schedule_id", id.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", id.String()))
		return nil, err
	}

	if err := json.Unmarshal(entries, &schedule.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode schedule entries: %w", err)
	}

	return &schedule, nil
}

// ListByUser implements store.ScheduleStore.ListByUser
func (s *PostgresScheduleStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	termID *uuid.UUID,
) ([]domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, term_id, name, draft, entries, created_at, updated_at
		FROM schedules
		WHERE user_id = $1 AND ($2::uuid IS NULL OR term_id = $2)
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, termID)
	if err != nil {
		log.Error("failed to list schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var schedules []domain.Schedule
	for rows.Next() {
		var schedule domain.Schedule
		var entries []byte
		err := rows.Scan(
			&schedule.ID,
			&schedule.UserID,
			&schedule.TermID,
			&schedule.Name,
			&schedule.Draft,
			&entries,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(entries, &schedule.Entries); err != nil {
			return nil, fmt.Errorf("failed to decode schedule entries: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// Update implements store.ScheduleStore.Update
// Returns store.ErrScheduleNotFound if the schedule does not exist.
func (s *PostgresScheduleStore) Update(ctx context.Context, schedule *domain.Schedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	entries, err := marshalEntries(schedule.Entries)
	if err != nil {
		return err
	}

	query := `
		UPDATE schedules
		SET name = $2, draft = $3, entries = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		schedule.ID,
		schedule.Name,
		schedule.Draft,
		entries,
		schedule.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrScheduleNotFound
	}

	log.Debug("schedule updated successfully",
		slog.String("schedule_id", schedule.ID.String()))
	return nil
}

// Delete implements store.ScheduleStore.Delete
// Returns store.ErrScheduleNotFound if the schedule does not exist.
func (s *PostgresScheduleStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrScheduleNotFound
	}

	log.Info("schedule deleted",
		slog.String("schedule_id", id.String()))
	return nil
}

// WithTx implements store.ScheduleStore.WithTx
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{
		db:     tx,
		logger: s.logger,
	}
}

// marshalEntries serializes the entry document. The transient Stale flag is
// cleared first so reconciliation state never persists.
func marshalEntries(entries []domain.ScheduleEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.ScheduleEntry{}
	}
	cleaned := make([]domain.ScheduleEntry, len(entries))
	copy(cleaned, entries)
	for i := range cleaned {
		cleaned[i].Stale = false
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule entries: %w", err)
	}
	return data, nil
}
