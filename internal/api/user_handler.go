package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// UserHandler handles profile-related API requests. All routes require an
// authenticated session.
type UserHandler struct {
	userService    service.UserService
	sessionService auth.SessionService
	validator      *validator.Validate
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	userService service.UserService,
	sessionService auth.SessionService,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		sessionService: sessionService,
		validator:      validator.New(),
	}
}

// Me handles GET /users/me requests.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load profile", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateMe handles PATCH /users/me requests (display name changes).
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.UpdateDisplayName(r.Context(), userID, req.DisplayName)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update profile", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// ChangePassword handles PUT /users/me/password requests. On success, every
// session of the user is revoked, including the one that made the request,
// and the session cookie is cleared; the client signs in again.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req ChangePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			shared.RespondWithError(w, r, http.StatusForbidden, "Current password is incorrect")
		case isUserValidationError(err):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid password: "+err.Error())
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to change password", err)
		}
		return
	}

	// A changed password invalidates every existing login. The client holds
	// the response to this request and must log in again.
	if err := h.sessionService.RevokeAll(r.Context(), userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Password changed but sessions could not be revoked", err)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMe handles DELETE /users/me requests. Sessions and schedules
// cascade with the account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to delete account", err)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
