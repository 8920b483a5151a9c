package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/config"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/store"
)

// sessionTokenBytes is the entropy of an opaque session token.
const sessionTokenBytes = 32

// SessionService defines operations for issuing and verifying login sessions.
type SessionService interface {
	// Issue creates a session for the user and returns the opaque token to
	// hand to the client. The token is returned exactly once; only its hash
	// is persisted.
	Issue(ctx context.Context, userID uuid.UUID) (string, *domain.Session, error)

	// Verify looks up the session for the given token, enforcing absolute
	// and idle expiry, and touches its last-seen timestamp.
	// Returns ErrInvalidSession or ErrExpiredSession on failure.
	Verify(ctx context.Context, token string) (*domain.Session, error)

	// Revoke deletes the session matching the given token (logout).
	// Revoking an unknown token returns ErrInvalidSession.
	Revoke(ctx context.Context, token string) error

	// RevokeAll deletes every session of the given user (logout everywhere).
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// storeSessionService is the SessionStore-backed implementation of
// SessionService.
type storeSessionService struct {
	sessions   store.SessionStore
	lifetime   time.Duration    // absolute session lifetime
	idleWindow time.Duration    // sliding idle expiry
	timeFunc   func() time.Time // injectable for testing
}

// Ensure storeSessionService implements SessionService interface
var _ SessionService = (*storeSessionService)(nil)

// NewSessionService creates a SessionService using the given store and
// lifetimes from configuration.
func NewSessionService(sessions store.SessionStore, cfg config.AuthConfig) (SessionService, error) {
	lifetime := time.Duration(cfg.SessionLifetimeMinutes) * time.Minute
	idleWindow := time.Duration(cfg.SessionIdleMinutes) * time.Minute

	if lifetime <= 0 || idleWindow <= 0 {
		return nil, fmt.Errorf("session lifetimes must be positive")
	}

	return &storeSessionService{
		sessions:   sessions,
		lifetime:   lifetime,
		idleWindow: idleWindow,
		timeFunc:   time.Now,
	}, nil
}

// Issue implements SessionService.Issue
func (s *storeSessionService) Issue(
	ctx context.Context,
	userID uuid.UUID,
) (string, *domain.Session, error) {
	log := logger.FromContext(ctx)

	token, err := generateSessionToken()
	if err != nil {
		log.Error("failed to generate session token",
			"error", err,
			"user_id", userID)
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session, err := domain.NewSession(userID, HashSessionToken(token), s.lifetime)
	if err != nil {
		return "", nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error("failed to persist session",
			"error", err,
			"user_id", userID)
		return "", nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Debug("session issued",
		"session_id", session.ID,
		"user_id", userID,
		"expires_at", session.ExpiresAt)

	return token, session, nil
}

// Verify implements SessionService.Verify
func (s *storeSessionService) Verify(ctx context.Context, token string) (*domain.Session, error) {
	log := logger.FromContext(ctx)

	if token == "" {
		return nil, ErrMissingToken
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			log.Debug("session verification failed: unknown token")
			return nil, ErrInvalidSession
		}
		log.Error("failed to look up session", "error", err)
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	now := s.timeFunc().UTC()
	if session.ExpiredAt(now, s.idleWindow) {
		log.Debug("session verification failed: expired",
			"session_id", session.ID,
			"expires_at", session.ExpiresAt,
			"last_seen_at", session.LastSeenAt)
		// Expired rows are purged opportunistically; a failed purge does not
		// fail the verification, the session is rejected either way.
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil &&
			!errors.Is(delErr, store.ErrSessionNotFound) {
			log.Warn("failed to purge expired session",
				"error", delErr,
				"session_id", session.ID)
		}
		return nil, ErrExpiredSession
	}

	session.LastSeenAt = now
	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			// Revoked between lookup and touch.
			return nil, ErrInvalidSession
		}
		log.Error("failed to touch session",
			"error", err,
			"session_id", session.ID)
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	return session, nil
}

// Revoke implements SessionService.Revoke
func (s *storeSessionService) Revoke(ctx context.Context, token string) error {
	log := logger.FromContext(ctx)

	if token == "" {
		return ErrMissingToken
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrInvalidSession
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrInvalidSession
		}
		log.Error("failed to revoke session",
			"error", err,
			"session_id", session.ID)
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	log.Debug("session revoked", "session_id", session.ID)
	return nil
}

// RevokeAll implements SessionService.RevokeAll
func (s *storeSessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContext(ctx)

	count, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		log.Error("failed to revoke user sessions",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	log.Debug("user sessions revoked",
		"user_id", userID,
		"count", count)
	return nil
}

// generateSessionToken returns a fresh opaque token:
// 32 random bytes, base64url encoded without padding.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSessionToken returns the hex-encoded SHA-256 digest of a token.
// Stores persist and look up sessions by this hash only.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
