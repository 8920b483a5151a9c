package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedr/schedr-api/internal/api/shared"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service"
	"github.com/schedr/schedr-api/internal/store"
)

// fakeScheduleService scripts ScheduleService responses for handler tests.
type fakeScheduleService struct {
	schedule  *domain.Schedule
	conflicts []domain.Conflict
	err       error
}

var _ service.ScheduleService = (*fakeScheduleService)(nil)

func (f *fakeScheduleService) Create(
	_ context.Context,
	_, _ uuid.UUID,
	_ string,
) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) List(
	_ context.Context,
	_ uuid.UUID,
	_ *uuid.UUID,
) ([]domain.Schedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Schedule{*f.schedule}, nil
}

func (f *fakeScheduleService) Get(_ context.Context, _, _ uuid.UUID) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) GetShared(_ context.Context, _ uuid.UUID) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) Update(
	_ context.Context,
	_, _ uuid.UUID,
	_ service.ScheduleUpdate,
) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) AddSection(
	_ context.Context,
	_, _, _ uuid.UUID,
) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) RemoveSection(
	_ context.Context,
	_, _, _ uuid.UUID,
) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) Clear(_ context.Context, _, _ uuid.UUID) (*domain.Schedule, error) {
	return f.schedule, f.err
}

func (f *fakeScheduleService) Validate(
	_ context.Context,
	_, _ uuid.UUID,
) ([]domain.Conflict, error) {
	return f.conflicts, f.err
}

func (f *fakeScheduleService) Delete(_ context.Context, _, _ uuid.UUID) error {
	return f.err
}

func (f *fakeScheduleService) Share(_ context.Context, _, _ uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "share-token", nil
}

// scheduleTestServer mounts the schedule routes behind a stub that injects
// the authenticated user into the request context.
func scheduleTestServer(svc service.ScheduleService, userID uuid.UUID) http.Handler {
	h := NewScheduleHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/schedules/{id}", h.Get)
	r.Post("/schedules/{id}/sections", h.AddSection)
	r.Delete("/schedules/{id}/sections/{sectionID}", h.RemoveSection)
	r.Get("/schedules/{id}/conflicts", h.Conflicts)
	r.Post("/schedules/{id}/share", h.Share)
	return r
}

func TestScheduleGet(t *testing.T) {
	t.Parallel()

	schedule, err := domain.NewSchedule(uuid.New(), uuid.New(), "Fall plan")
	require.NoError(t, err)
	srv := scheduleTestServer(&fakeScheduleService{schedule: schedule}, schedule.UserID)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules/"+schedule.ID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, schedule.ID, got.ID)
}

func TestScheduleGetNotFound(t *testing.T) {
	t.Parallel()

	srv := scheduleTestServer(&fakeScheduleService{err: store.ErrScheduleNotFound}, uuid.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleGetBadID(t *testing.T) {
	t.Parallel()

	srv := scheduleTestServer(&fakeScheduleService{}, uuid.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddSectionErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"section missing", store.ErrSectionNotFound, http.StatusNotFound},
		{"wrong term", domain.ErrEntryWrongTerm, http.StatusUnprocessableEntity},
		{"already added", domain.ErrSectionAlreadyAdded, http.StatusConflict},
		{"would conflict", domain.ErrScheduleHasConflicts, http.StatusConflict},
		{"schedule missing", store.ErrScheduleNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := scheduleTestServer(&fakeScheduleService{err: tc.serviceErr}, uuid.New())

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, postJSON(t,
				"/schedules/"+uuid.NewString()+"/sections",
				AddSectionRequest{SectionID: uuid.New()}))

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestRemoveSectionNotOnSchedule(t *testing.T) {
	t.Parallel()

	srv := scheduleTestServer(&fakeScheduleService{err: domain.ErrSectionNotOnSchedule}, uuid.New())

	rec := httptest.NewRecorder()
	target := "/schedules/" + uuid.NewString() + "/sections/" + uuid.NewString()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConflictsResponseShape(t *testing.T) {
	t.Parallel()

	conflict := domain.Conflict{SectionA: uuid.New(), SectionB: uuid.New()}
	srv := scheduleTestServer(&fakeScheduleService{conflicts: []domain.Conflict{conflict}}, uuid.New())

	rec := httptest.NewRecorder()
	target := "/schedules/" + uuid.NewString() + "/conflicts"
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConflictsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, conflict.SectionA, resp.Conflicts[0].SectionA)
}

func TestConflictsEmptyIsValid(t *testing.T) {
	t.Parallel()

	srv := scheduleTestServer(&fakeScheduleService{}, uuid.New())

	rec := httptest.NewRecorder()
	target := "/schedules/" + uuid.NewString() + "/conflicts"
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConflictsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.NotNil(t, resp.Conflicts)
	assert.Empty(t, resp.Conflicts)
}

func TestShareMintsToken(t *testing.T) {
	t.Parallel()

	srv := scheduleTestServer(&fakeScheduleService{}, uuid.New())

	rec := httptest.NewRecorder()
	target := "/schedules/" + uuid.NewString() + "/share"
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ShareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "share-token", resp.Token)
}
