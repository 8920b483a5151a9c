package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Session
var (
	ErrSessionIDEmpty        = errors.New("session ID cannot be empty")
	ErrSessionUserIDEmpty    = errors.New("session user ID cannot be empty")
	ErrSessionTokenHashEmpty = errors.New("session token hash cannot be empty")
	ErrSessionExpiryInvalid  = errors.New("session expiry must be after creation")
)

// Session represents a server-side login session. The opaque token handed to
// the client is never stored; only its SHA-256 hash is, and verification is
// a keyed lookup by that hash.
type Session struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	TokenHash  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewSession creates a session for the given user with the given token hash
// and absolute lifetime. LastSeenAt starts at creation time.
func NewSession(userID uuid.UUID, tokenHash string, lifetime time.Duration) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:         uuid.New(),
		UserID:     userID,
		TokenHash:  tokenHash,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(lifetime),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the Session has valid data.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.TokenHash == "" {
		return ErrSessionTokenHashEmpty
	}

	if !s.ExpiresAt.After(s.CreatedAt) {
		return ErrSessionExpiryInvalid
	}

	return nil
}

// ExpiredAt reports whether the session is expired at the given instant,
// either because its absolute expiry has passed or because it has been idle
// longer than idleWindow.
func (s *Session) ExpiredAt(now time.Time, idleWindow time.Duration) bool {
	if !now.Before(s.ExpiresAt) {
		return true
	}
	return now.Sub(s.LastSeenAt) > idleWindow
}
