package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// ShareHandler serves schedules through share links. Routes here are
// public; the token in the URL is the whole authorization.
type ShareHandler struct {
	shareTokens     auth.ShareTokenService
	scheduleService service.ScheduleService
}

// NewShareHandler creates a new ShareHandler with the given dependencies.
func NewShareHandler(
	shareTokens auth.ShareTokenService,
	scheduleService service.ScheduleService,
) *ShareHandler {
	return &ShareHandler{
		shareTokens:     shareTokens,
		scheduleService: scheduleService,
	}
}

// Get handles GET /shared/{token} requests.
func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing share token")
		return
	}

	scheduleID, err := h.shareTokens.Validate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredShareToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Share link has expired")
		case errors.Is(err, auth.ErrInvalidShareToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid share link")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to validate share link", err)
		}
		return
	}

	schedule, err := h.scheduleService.GetShared(r.Context(), scheduleID)
	if err != nil {
		// A valid token for a deleted schedule reads like a missing page.
		if errors.Is(err, store.ErrScheduleNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Schedule not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load shared schedule", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}
