package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/store"
)

// ScheduleHandler handles schedule builder API requests. All routes require
// an authenticated session; share-link reads live on ShareHandler.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	validator       *validator.Validate
}

// NewScheduleHandler creates a new ScheduleHandler with the given service.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		validator:       validator.New(),
	}
}

// Create handles POST /schedules requests.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	schedule, err := h.scheduleService.Create(r.Context(), userID, req.TermID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidEntity):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Term does not exist")
		case isScheduleValidationError(err):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid schedule: "+err.Error())
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to create schedule", err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, schedule)
}

// List handles GET /schedules requests. An optional term query parameter
// restricts the listing to one term.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var termID *uuid.UUID
	if raw := r.URL.Query().Get("term"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid term parameter")
			return
		}
		termID = &id
	}

	schedules, err := h.scheduleService.List(r.Context(), userID, termID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list schedules", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedules)
}

// Get handles GET /schedules/{id} requests.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.Get(r.Context(), userID, scheduleID)
	if err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// Update handles PATCH /schedules/{id} requests.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	schedule, err := h.scheduleService.Update(r.Context(), userID, scheduleID, service.ScheduleUpdate{
		Name:  req.Name,
		Draft: req.Draft,
	})
	if err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// Delete handles DELETE /schedules/{id} requests.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(r.Context(), userID, scheduleID); err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddSection handles POST /schedules/{id}/sections requests.
func (h *ScheduleHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	var req AddSectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	schedule, err := h.scheduleService.AddSection(r.Context(), userID, scheduleID, req.SectionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSectionNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound, "Section not found")
		case errors.Is(err, domain.ErrEntryWrongTerm):
			shared.RespondWithError(w, r, http.StatusUnprocessableEntity,
				"Section belongs to a different term")
		case errors.Is(err, domain.ErrSectionAlreadyAdded):
			shared.RespondWithError(w, r, http.StatusConflict, "Section is already on the schedule")
		case errors.Is(err, domain.ErrScheduleHasConflicts):
			shared.RespondWithError(w, r, http.StatusConflict,
				"Section would conflict with the schedule")
		default:
			h.respondScheduleError(w, r, err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// RemoveSection handles DELETE /schedules/{id}/sections/{sectionID} requests.
func (h *ScheduleHandler) RemoveSection(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	sectionID, err := uuid.Parse(chi.URLParam(r, "sectionID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid section ID")
		return
	}

	schedule, err := h.scheduleService.RemoveSection(r.Context(), userID, scheduleID, sectionID)
	if err != nil {
		if errors.Is(err, domain.ErrSectionNotOnSchedule) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Section is not on the schedule")
			return
		}
		h.respondScheduleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// Clear handles POST /schedules/{id}/clear requests.
func (h *ScheduleHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.Clear(r.Context(), userID, scheduleID)
	if err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// Conflicts handles GET /schedules/{id}/conflicts requests.
func (h *ScheduleHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	conflicts, err := h.scheduleService.Validate(r.Context(), userID, scheduleID)
	if err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	if conflicts == nil {
		conflicts = []domain.Conflict{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ConflictsResponse{
		Valid:     len(conflicts) == 0,
		Conflicts: conflicts,
	})
}

// Share handles POST /schedules/{id}/share requests.
func (h *ScheduleHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.idsFromRequest(w, r)
	if !ok {
		return
	}

	token, err := h.scheduleService.Share(r.Context(), userID, scheduleID)
	if err != nil {
		h.respondScheduleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ShareResponse{Token: token})
}

// idsFromRequest extracts the authenticated user ID and the schedule ID from
// the URL, writing the error response itself when either is missing.
func (h *ScheduleHandler) idsFromRequest(
	w http.ResponseWriter,
	r *http.Request,
) (userID, scheduleID uuid.UUID, ok bool) {
	userID, found := middleware.GetUserID(r)
	if !found {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid schedule ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, scheduleID, true
}

// respondScheduleError maps the common schedule service failures to HTTP
// responses.
func (h *ScheduleHandler) respondScheduleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrScheduleNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Schedule not found")
	case errors.Is(err, domain.ErrScheduleHasConflicts):
		shared.RespondWithError(w, r, http.StatusConflict, "Schedule has meeting conflicts")
	case isScheduleValidationError(err):
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid schedule: "+err.Error())
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to process schedule request", err)
	}
}

// isScheduleValidationError reports whether err is one of the schedule
// field validation failures.
func isScheduleValidationError(err error) bool {
	return errors.Is(err, domain.ErrScheduleNameEmpty) ||
		errors.Is(err, domain.ErrScheduleNameTooLong) ||
		errors.Is(err, domain.ErrScheduleUserIDEmpty) ||
		errors.Is(err, domain.ErrScheduleTermIDEmpty)
}
