package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/store"
	"github.com/schedr/schedr-api/internal/task"
)

// maxFeedBody caps catalog feed uploads. Feeds carry a whole term catalog,
// so the limit is well above the general request body cap.
const maxFeedBody = 16 << 20 // 16 MB

// CatalogHandler handles catalog browsing and feed import API requests.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler with the given service.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListTerms handles GET /terms requests.
func (h *CatalogHandler) ListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.catalogService.ListTerms(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list terms", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, terms)
}

// ListCourses handles GET /terms/{termID}/courses requests. Supports q,
// limit and offset query parameters.
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	termID, err := uuid.Parse(chi.URLParam(r, "termID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid term ID")
		return
	}

	q := store.CourseQuery{
		TermID: termID,
		Search: r.URL.Query().Get("q"),
	}
	q.Limit, err = parseIntParam(r, "limit", 0)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	q.Offset, err = parseIntParam(r, "offset", 0)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	courses, total, err := h.catalogService.SearchCourses(r.Context(), q)
	if err != nil {
		if errors.Is(err, store.ErrTermNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Term not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to search courses", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

// GetCourse handles GET /courses/{id} requests.
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := h.catalogService.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Course not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get course", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, course)
}

// StageImport handles POST /catalog/imports requests. The body is the raw
// catalog feed; processing happens in the background.
func (h *CatalogHandler) StageImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	feed, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFeedBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Feed too large")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(feed) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Feed body is empty")
		return
	}

	imp, err := h.catalogService.StageImport(r.Context(), userID, feed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFeed):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Feed is not valid JSON")
		case errors.Is(err, task.ErrQueueFull):
			shared.RespondWithError(w, r, http.StatusServiceUnavailable,
				"Import queue is full, try again later")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to stage import", err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, imp)
}

// GetImport handles GET /catalog/imports/{id} requests.
func (h *CatalogHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid import ID")
		return
	}

	imp, err := h.catalogService.GetImport(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrImportNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Import not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get import", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, imp)
}

// parseIntParam reads a non-negative integer query parameter, returning the
// fallback when the parameter is absent.
func parseIntParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return v, nil
}
