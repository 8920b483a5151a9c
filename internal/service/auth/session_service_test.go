package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedr/schedr-api/internal/config"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/store"
)

// fakeSessionStore is an in-memory SessionStore for testing.
type fakeSessionStore struct {
	sessions map[uuid.UUID]*domain.Session
}

var _ store.SessionStore = (*fakeSessionStore)(nil)

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session *domain.Session) error {
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash {
			copied := *s
			return &copied, nil
		}
	}
	return nil, store.ErrSessionNotFound
}

func (f *fakeSessionStore) Touch(_ context.Context, id uuid.UUID, lastSeenAt time.Time) error {
	s, ok := f.sessions[id]
	if !ok {
		return store.ErrSessionNotFound
	}
	s.LastSeenAt = lastSeenAt
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return store.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, s := range f.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) WithTx(_ *sql.Tx) store.SessionStore {
	return f
}

func sessionTestConfig() config.AuthConfig {
	return config.AuthConfig{
		BcryptCost:             10,
		SessionLifetimeMinutes: 60 * 24,
		SessionIdleMinutes:     30,
		ShareLinkSecret:        "0123456789abcdef0123456789abcdef",
		ShareLinkTTLMinutes:    60,
	}
}

func newTestSessionService(t *testing.T, sessions store.SessionStore) *storeSessionService {
	t.Helper()
	svc, err := NewSessionService(sessions, sessionTestConfig())
	require.NoError(t, err)
	return svc.(*storeSessionService)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)
	userID := uuid.New()

	token, session, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, token, 43, "32 random bytes base64url encode to 43 characters")
	assert.Equal(t, userID, session.UserID)
	assert.NotContains(t, token, session.TokenHash, "plaintext token must differ from stored hash")

	verified, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, verified.ID)
	assert.Equal(t, userID, verified.UserID)
}

func TestVerifyUnknownToken(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t, newFakeSessionStore())

	_, err := svc.Verify(context.Background(), "not-a-real-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyIdleExpiry(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)

	token, session, err := svc.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	// Jump past the idle window but not the absolute expiry.
	svc.timeFunc = func() time.Time {
		return session.CreatedAt.Add(31 * time.Minute)
	}

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredSession)
	assert.Empty(t, sessions.sessions, "expired session should be purged")
}

func TestVerifySlidesIdleWindow(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)

	token, session, err := svc.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	// Activity every 20 minutes keeps a 30-minute idle window alive.
	for i := 1; i <= 3; i++ {
		offset := time.Duration(i) * 20 * time.Minute
		svc.timeFunc = func() time.Time {
			return session.CreatedAt.Add(offset)
		}
		_, err = svc.Verify(context.Background(), token)
		require.NoError(t, err, "verification %d should slide the window", i)
	}
}

func TestVerifyAbsoluteExpiry(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)

	token, session, err := svc.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	// Keep the session active right up to the absolute expiry.
	stored := sessions.sessions[session.ID]
	stored.LastSeenAt = session.ExpiresAt.Add(-time.Minute)

	svc.timeFunc = func() time.Time {
		return session.ExpiresAt
	}

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)

	token, _, err := svc.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), token))

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.ErrorIs(t, svc.Revoke(context.Background(), token), ErrInvalidSession)
}

func TestRevokeAll(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessionStore()
	svc := newTestSessionService(t, sessions)
	userID := uuid.New()
	otherID := uuid.New()

	tokenA, _, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	tokenB, _, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	tokenOther, _, err := svc.Issue(context.Background(), otherID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(context.Background(), userID))

	_, err = svc.Verify(context.Background(), tokenA)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.Verify(context.Background(), tokenB)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.Verify(context.Background(), tokenOther)
	assert.NoError(t, err, "other users' sessions must survive")
}

func TestHashSessionTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	a := HashSessionToken("token")
	b := HashSessionToken("token")
	c := HashSessionToken("other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "hex encoded SHA-256 digest")
}
