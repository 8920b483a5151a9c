package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/store"
)

// SessionPurgeTask deletes sessions whose absolute expiry has passed.
// Idle-expired sessions are already removed when a verification rejects
// them; this sweep catches the rows nobody presents again.
type SessionPurgeTask struct {
	id       uuid.UUID
	sessions store.SessionStore
	logger   *slog.Logger

	// timeFunc returns the current time; injectable for testing.
	timeFunc func() time.Time
}

// Ensure SessionPurgeTask implements Task interface
var _ Task = (*SessionPurgeTask)(nil)

// NewSessionPurgeTask creates a purge task. Each task gets its own ID so
// repeated sweeps are distinguishable in logs.
func NewSessionPurgeTask(sessions store.SessionStore, logger *slog.Logger) *SessionPurgeTask {
	return &SessionPurgeTask{
		id:       uuid.New(),
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_purge_task")),
		timeFunc: time.Now,
	}
}

// ID implements Task.ID
func (t *SessionPurgeTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type
func (t *SessionPurgeTask) Type() string {
	return TaskTypeSessionPurge
}

// Execute implements Task.Execute
func (t *SessionPurgeTask) Execute(ctx context.Context) error {
	purged, err := t.sessions.DeleteExpired(ctx, t.timeFunc().UTC())
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	if purged > 0 {
		t.logger.Info("purged expired sessions", "count", purged)
	}
	return nil
}
