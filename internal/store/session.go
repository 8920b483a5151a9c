package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
)

// SessionStore defines the interface for session persistence. Sessions are
// always looked up by token hash; the plaintext token never reaches a store.
type SessionStore interface {
	// Create saves a new session.
	// Returns ErrInvalidEntity if the user does not exist.
	Create(ctx context.Context, session *domain.Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns ErrSessionNotFound if no such session exists.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// Touch updates a session's last-seen timestamp, implementing the
	// sliding idle window. Returns ErrSessionNotFound if the session is gone.
	Touch(ctx context.Context, id uuid.UUID, lastSeenAt time.Time) error

	// Delete removes a single session (logout).
	// Returns ErrSessionNotFound if the session does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser removes every session belonging to a user (logout all).
	// Returns the number of sessions removed.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired purges sessions whose absolute expiry is at or before
	// the given instant. Returns the number of sessions removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a new SessionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) SessionStore
}
