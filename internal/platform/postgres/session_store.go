package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
// Returns store.ErrInvalidEntity if the user does not exist.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO sessions (id, user_id, token_hash, created_at, last_seen_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.CreatedAt,
		session.LastSeenAt,
		session.ExpiresAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during session creation",
				slog.String("session_id", session.ID.String()),
				slog.String("user_id", session.UserID.String()))
			return store.ErrInvalidEntity
		}
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	log.Debug("session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()))
	return nil
}

// GetByTokenHash implements store.SessionStore.GetByTokenHash
// Returns store.ErrSessionNotFound if no session matches the hash.
func (s *PostgresSessionStore) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, token_hash, created_at, last_seen_at, expires_at
		FROM sessions
		WHERE token_hash = $1
	`

	var session domain.Session
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session not found by token hash")
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by token hash",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &session, nil
}

// Touch implements store.SessionStore.Touch
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Touch(
	ctx context.Context,
	id uuid.UUID,
	lastSeenAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`,
		id,
		lastSeenAt,
	)
	if err != nil {
		log.Error("failed to touch session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrSessionNotFound
	}

	return nil
}

// Delete implements store.SessionStore.Delete
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrSessionNotFound
	}

	log.Debug("session deleted",
		slog.String("session_id", id.String()))
	return nil
}

// DeleteByUser implements store.SessionStore.DeleteByUser
func (s *PostgresSessionStore) DeleteByUser(
	ctx context.Context,
	userID uuid.UUID,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete user sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.Debug("user sessions deleted",
		slog.String("user_id", userID.String()),
		slog.Int64("count", rows))
	return rows, nil
}

// DeleteExpired implements store.SessionStore.DeleteExpired
func (s *PostgresSessionStore) DeleteExpired(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		log.Error("failed to purge expired sessions",
			slog.String("error", err.Error()))
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rows > 0 {
		log.Debug("expired sessions purged", slog.Int64("count", rows))
	}
	return rows, nil
}

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
