package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService    service.UserService
	sessionService auth.SessionService
	validator      *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	sessionService auth.SessionService,
) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		validator:      validator.New(),
	}
}

// Register handles the /auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
		case isUserValidationError(err):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to create account", err)
		}
		return
	}

	h.issueSession(w, r, user.ID, http.StatusCreated)
}

// Login handles the /auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to authenticate", err)
		return
	}

	h.issueSession(w, r, user.ID, http.StatusOK)
}

// Logout handles the /auth/logout endpoint. It revokes the session that
// authenticated this request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.ExtractToken(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.sessionService.Revoke(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			// Already gone; logout is idempotent from the client's view.
			clearSessionCookie(w)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to log out", err)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles the /auth/logout-all endpoint. It revokes every session
// of the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if err := h.sessionService.RevokeAll(r.Context(), userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to log out", err)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// issueSession creates a session for the user and writes the auth response,
// setting the session cookie for browser clients.
func (h *AuthHandler) issueSession(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
	status int,
) {
	token, session, err := h.sessionService.Issue(r.Context(), userID)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:    session.UserID,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

// clearSessionCookie expires the browser session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// isUserValidationError reports whether the error is one of the domain's
// user validation failures, which map to 400 rather than 500.
func isUserValidationError(err error) bool {
	return errors.Is(err, domain.ErrEmailEmpty) ||
		errors.Is(err, domain.ErrEmailInvalid) ||
		errors.Is(err, domain.ErrDisplayNameTooLong) ||
		errors.Is(err, domain.ErrPasswordTooShort) ||
		errors.Is(err, domain.ErrPasswordTooLong) ||
		errors.Is(err, domain.ErrPasswordEmpty)
}
