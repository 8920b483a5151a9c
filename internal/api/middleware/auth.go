package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/redact"
	"github.com/schedr/schedr-api/internal/service/auth"
)

// SessionCookieName is the cookie the browser UI stores its session token in.
const SessionCookieName = "session"

// AuthMiddleware provides session authentication for routes.
type AuthMiddleware struct {
	sessionService auth.SessionService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(sessionService auth.SessionService) *AuthMiddleware {
	return &AuthMiddleware{
		sessionService: sessionService,
	}
}

// Authenticate verifies the session token from the Authorization header or
// session cookie and adds the user and session IDs to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractToken(r)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		session, err := m.sessionService.Verify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredSession):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Session expired")
			case errors.Is(err, auth.ErrInvalidSession), errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid session")
			default:
				logger.FromContext(r.Context()).Error("failed to verify session",
					slog.String("error", redact.Error(err)))
				shared.RespondWithError(
					w,
					r,
					http.StatusInternalServerError,
					"Authentication error",
				)
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, session.UserID)
		ctx = context.WithValue(ctx, shared.SessionIDContextKey, session.ID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken pulls the session token from the Authorization header
// (Bearer scheme) or, failing that, the session cookie.
func ExtractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", auth.ErrMissingToken
		}
		return parts[1], nil
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", auth.ErrMissingToken
}

// GetUserID extracts the authenticated user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetSessionID extracts the ID of the session backing the request.
// Returns the session ID and a boolean indicating if it was found.
func GetSessionID(r *http.Request) (uuid.UUID, bool) {
	sessionID, ok := r.Context().Value(shared.SessionIDContextKey).(uuid.UUID)
	return sessionID, ok
}
