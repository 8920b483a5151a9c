package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/store"
)

// fakeScheduleStore is an in-memory ScheduleStore for testing.
type fakeScheduleStore struct {
	schedules map[uuid.UUID]*domain.Schedule
}

var _ store.ScheduleStore = (*fakeScheduleStore)(nil)

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[uuid.UUID]*domain.Schedule)}
}

func (f *fakeScheduleStore) Create(_ context.Context, schedule *domain.Schedule) error {
	copied := *schedule
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	copied := *s
	copied.Entries = append([]domain.ScheduleEntry(nil), s.Entries...)
	return &copied, nil
}

func (f *fakeScheduleStore) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	termID *uuid.UUID,
) ([]domain.Schedule, error) {
	var out []domain.Schedule
	for _, s := range f.schedules {
		if s.UserID != userID {
			continue
		}
		if termID != nil && s.TermID != *termID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeScheduleStore) Update(_ context.Context, schedule *domain.Schedule) error {
	if _, ok := f.schedules[schedule.ID]; !ok {
		return store.ErrScheduleNotFound
	}
	copied := *schedule
	copied.Entries = append([]domain.ScheduleEntry(nil), schedule.Entries...)
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.schedules[id]; !ok {
		return store.ErrScheduleNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeScheduleStore) WithTx(_ *sql.Tx) store.ScheduleStore {
	return f
}

// fakeCatalogStore is an in-memory CatalogStore for testing.
type fakeCatalogStore struct {
	terms    map[uuid.UUID]*domain.Term
	courses  map[uuid.UUID]*domain.Course
	sections map[uuid.UUID]*domain.Section
}

var _ store.CatalogStore = (*fakeCatalogStore)(nil)

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		terms:    make(map[uuid.UUID]*domain.Term),
		courses:  make(map[uuid.UUID]*domain.Course),
		sections: make(map[uuid.UUID]*domain.Section),
	}
}

func (f *fakeCatalogStore) ListTerms(_ context.Context) ([]domain.Term, error) {
	var out []domain.Term
	for _, t := range f.terms {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeCatalogStore) GetTermByCode(_ context.Context, code string) (*domain.Term, error) {
	for _, t := range f.terms {
		if t.Code == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, store.ErrTermNotFound
}

func (f *fakeCatalogStore) UpsertTerm(_ context.Context, term *domain.Term) error {
	copied := *term
	f.terms[term.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) ListCourses(
	_ context.Context,
	q store.CourseQuery,
) ([]domain.Course, int, error) {
	var out []domain.Course
	for _, c := range f.courses {
		if c.TermID == q.TermID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (f *fakeCatalogStore) GetCourse(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCatalogStore) UpsertCourse(_ context.Context, course *domain.Course) error {
	copied := *course
	f.courses[course.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) GetSection(_ context.Context, id uuid.UUID) (*domain.Section, error) {
	s, ok := f.sections[id]
	if !ok {
		return nil, store.ErrSectionNotFound
	}
	copied := *s
	copied.Meetings = append([]domain.MeetingBlock(nil), s.Meetings...)
	return &copied, nil
}

func (f *fakeCatalogStore) UpsertSection(_ context.Context, section *domain.Section) error {
	copied := *section
	f.sections[section.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) WithTx(_ *sql.Tx) store.CatalogStore {
	return f
}

// fakeShareTokenService mints predictable tokens for testing.
type fakeShareTokenService struct {
	lastScheduleID uuid.UUID
}

func (f *fakeShareTokenService) Generate(_ context.Context, scheduleID uuid.UUID) (string, error) {
	f.lastScheduleID = scheduleID
	return "share-token-" + scheduleID.String(), nil
}

func (f *fakeShareTokenService) Validate(_ context.Context, _ string) (uuid.UUID, error) {
	return f.lastScheduleID, nil
}

// scheduleFixture wires a schedule service with one term, course, and two
// sections in the catalog.
type scheduleFixture struct {
	svc      *ScheduleServiceImpl
	catalog  *fakeCatalogStore
	store    *fakeScheduleStore
	termID   uuid.UUID
	courseID uuid.UUID
	lecture  *domain.Section
	lab      *domain.Section
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()

	catalog := newFakeCatalogStore()
	schedules := newFakeScheduleStore()

	termID := uuid.New()
	catalog.terms[termID] = &domain.Term{ID: termID, Code: "2026-fall", Name: "Fall 2026"}

	courseID := uuid.New()
	catalog.courses[courseID] = &domain.Course{
		ID:     courseID,
		TermID: termID,
		Code:   "CS 2110",
		Title:  "Object-Oriented Programming",
	}

	lecture := &domain.Section{
		ID:       uuid.New(),
		CourseID: courseID,
		Code:     "LEC 001",
		Meetings: []domain.MeetingBlock{
			{Weekday: time.Monday, StartMinute: 600, EndMinute: 675},
		},
	}
	lab := &domain.Section{
		ID:       uuid.New(),
		CourseID: courseID,
		Code:     "LEC 002",
		Meetings: []domain.MeetingBlock{
			{Weekday: time.Tuesday, StartMinute: 600, EndMinute: 675},
		},
	}
	catalog.sections[lecture.ID] = lecture
	catalog.sections[lab.ID] = lab

	svc := NewScheduleService(schedules, catalog, &fakeShareTokenService{}, slog.Default())

	return &scheduleFixture{
		svc:      svc,
		catalog:  catalog,
		store:    schedules,
		termID:   termID,
		courseID: courseID,
		lecture:  lecture,
		lab:      lab,
	}
}

func TestScheduleCreateAndGet(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)
	assert.True(t, created.Draft)

	got, err := fx.svc.Get(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Empty(t, got.Entries)
}

func TestScheduleOwnershipDoesNotLeak(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	owner := uuid.New()
	stranger := uuid.New()

	created, err := fx.svc.Create(context.Background(), owner, fx.termID, "Fall plan")
	require.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), stranger, created.ID)
	assert.ErrorIs(t, err, store.ErrScheduleNotFound)

	err = fx.svc.Delete(context.Background(), stranger, created.ID)
	assert.ErrorIs(t, err, store.ErrScheduleNotFound)

	_, err = fx.svc.AddSection(context.Background(), stranger, created.ID, fx.lecture.ID)
	assert.ErrorIs(t, err, store.ErrScheduleNotFound)
}

func TestAddSectionSnapshotsDetails(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)

	updated, err := fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	require.NoError(t, err)
	require.Len(t, updated.Entries, 1)

	entry := updated.Entries[0]
	assert.Equal(t, fx.lecture.ID, entry.SectionID)
	assert.Equal(t, "CS 2110", entry.CourseCode)
	assert.Equal(t, "Object-Oriented Programming", entry.CourseTitle)
	assert.Equal(t, "LEC 001", entry.SectionCode)
	assert.Equal(t, fx.lecture.Meetings, entry.Meetings)
}

func TestAddSectionReplacesSameCourse(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)

	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	require.NoError(t, err)

	updated, err := fx.svc.AddSection(context.Background(), userID, created.ID, fx.lab.ID)
	require.NoError(t, err)
	require.Len(t, updated.Entries, 1, "second section of the same course replaces the first")
	assert.Equal(t, fx.lab.ID, updated.Entries[0].SectionID)
}

func TestAddSectionRejectsWrongTerm(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	otherTermID := uuid.New()
	fx.catalog.terms[otherTermID] = &domain.Term{ID: otherTermID, Code: "2027-spring", Name: "Spring 2027"}

	created, err := fx.svc.Create(context.Background(), userID, otherTermID, "Spring plan")
	require.NoError(t, err)

	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	assert.ErrorIs(t, err, domain.ErrEntryWrongTerm)
}

func TestNonDraftRejectsConflicts(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	// A second course whose only section clashes with the lecture.
	clashCourseID := uuid.New()
	fx.catalog.courses[clashCourseID] = &domain.Course{
		ID:     clashCourseID,
		TermID: fx.termID,
		Code:   "MATH 1910",
		Title:  "Calculus",
	}
	clashing := &domain.Section{
		ID:       uuid.New(),
		CourseID: clashCourseID,
		Code:     "LEC 001",
		Meetings: []domain.MeetingBlock{
			{Weekday: time.Monday, StartMinute: 630, EndMinute: 705},
		},
	}
	fx.catalog.sections[clashing.ID] = clashing

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)

	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	require.NoError(t, err)

	// Conflicting picks are allowed while the schedule is a draft.
	updated, err := fx.svc.AddSection(context.Background(), userID, created.ID, clashing.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Entries, 2)

	conflicts, err := fx.svc.Validate(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	// Promoting a conflicted draft must fail.
	draft := false
	_, err = fx.svc.Update(context.Background(), userID, created.ID, ScheduleUpdate{Draft: &draft})
	assert.ErrorIs(t, err, domain.ErrScheduleHasConflicts)

	// Removing the clash clears the way.
	_, err = fx.svc.RemoveSection(context.Background(), userID, created.ID, clashing.ID)
	require.NoError(t, err)
	final, err := fx.svc.Update(context.Background(), userID, created.ID, ScheduleUpdate{Draft: &draft})
	require.NoError(t, err)
	assert.False(t, final.Draft)

	// On a final schedule the conflicting add itself is rejected.
	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, clashing.ID)
	assert.ErrorIs(t, err, domain.ErrScheduleHasConflicts)
}

func TestGetFlagsStaleEntries(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)
	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	require.NoError(t, err)

	// Catalog edit moves the lecture an hour later.
	fx.catalog.sections[fx.lecture.ID].Meetings = []domain.MeetingBlock{
		{Weekday: time.Monday, StartMinute: 660, EndMinute: 735},
	}

	got, err := fx.svc.Get(context.Background(), userID, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.True(t, got.Entries[0].Stale, "moved section should flag the entry stale")

	// The snapshot itself is preserved for rendering.
	assert.Equal(t, 600, got.Entries[0].Meetings[0].StartMinute)

	// A deleted section also flags the entry.
	delete(fx.catalog.sections, fx.lecture.ID)
	got, err = fx.svc.Get(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Entries[0].Stale)
}

func TestClearSchedule(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)
	_, err = fx.svc.AddSection(context.Background(), userID, created.ID, fx.lecture.ID)
	require.NoError(t, err)

	cleared, err := fx.svc.Clear(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Entries)
}

func TestListFiltersByTerm(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	otherTermID := uuid.New()
	fx.catalog.terms[otherTermID] = &domain.Term{ID: otherTermID, Code: "2027-spring", Name: "Spring 2027"}

	_, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), userID, otherTermID, "Spring plan")
	require.NoError(t, err)

	all, err := fx.svc.List(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fall, err := fx.svc.List(context.Background(), userID, &fx.termID)
	require.NoError(t, err)
	require.Len(t, fall, 1)
	assert.Equal(t, "Fall plan", fall[0].Name)
}

func TestShareAndGetShared(t *testing.T) {
	t.Parallel()

	fx := newScheduleFixture(t)
	userID := uuid.New()

	created, err := fx.svc.Create(context.Background(), userID, fx.termID, "Fall plan")
	require.NoError(t, err)

	token, err := fx.svc.Share(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Share-link reads bypass the owner check.
	got, err := fx.svc.GetShared(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// But only the owner can mint links.
	_, err = fx.svc.Share(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, store.ErrScheduleNotFound)
}
