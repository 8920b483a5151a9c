package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// ScheduleUpdate carries the mutable row-level fields of a schedule.
// Nil fields are left unchanged.
type ScheduleUpdate struct {
	Name  *string
	Draft *bool
}

// ScheduleService provides the schedule builder operations: creating and
// listing schedules, placing and removing sections on the grid, conflict
// validation, and share links. All operations except GetShared are scoped to
// the owning user; acting on another user's schedule behaves exactly like
// acting on a missing one.
type ScheduleService interface {
	// Create creates an empty draft schedule for the user in the given term.
	Create(ctx context.Context, userID, termID uuid.UUID, name string) (*domain.Schedule, error)

	// List returns the user's schedules, optionally restricted to a term.
	List(ctx context.Context, userID uuid.UUID, termID *uuid.UUID) ([]domain.Schedule, error)

	// Get returns one of the user's schedules with entries reconciled
	// against the live catalog (stale entries flagged).
	// Returns store.ErrScheduleNotFound for missing or foreign schedules.
	Get(ctx context.Context, userID, scheduleID uuid.UUID) (*domain.Schedule, error)

	// GetShared returns a schedule by ID for share-link access, reconciled
	// like Get but without an owner check. Callers must have validated a
	// share token for this ID first.
	GetShared(ctx context.Context, scheduleID uuid.UUID) (*domain.Schedule, error)

	// Update renames a schedule and/or toggles its draft flag. Leaving
	// draft status requires a conflict-free schedule.
	Update(ctx context.Context, userID, scheduleID uuid.UUID, upd ScheduleUpdate) (*domain.Schedule, error)

	// AddSection places a section on the schedule, snapshotting its course
	// and meeting details. A different section of an already-placed course
	// replaces the earlier choice. Non-draft schedules reject additions that
	// introduce conflicts.
	AddSection(ctx context.Context, userID, scheduleID, sectionID uuid.UUID) (*domain.Schedule, error)

	// RemoveSection takes a section off the schedule.
	RemoveSection(ctx context.Context, userID, scheduleID, sectionID uuid.UUID) (*domain.Schedule, error)

	// Clear removes every entry from the schedule.
	Clear(ctx context.Context, userID, scheduleID uuid.UUID) (*domain.Schedule, error)

	// Validate reports every pairwise meeting conflict on the schedule.
	Validate(ctx context.Context, userID, scheduleID uuid.UUID) ([]domain.Conflict, error)

	// Delete removes the schedule.
	Delete(ctx context.Context, userID, scheduleID uuid.UUID) error

	// Share mints a signed, expiring share token granting read access.
	Share(ctx context.Context, userID, scheduleID uuid.UUID) (string, error)
}

// ScheduleServiceImpl implements the ScheduleService interface
type ScheduleServiceImpl struct {
	schedules   store.ScheduleStore
	catalog     store.CatalogStore
	shareTokens auth.ShareTokenService
	logger      *slog.Logger
}

// Ensure ScheduleServiceImpl implements ScheduleService interface
var _ ScheduleService = (*ScheduleServiceImpl)(nil)

// NewScheduleService creates a new ScheduleService
func NewScheduleService(
	schedules store.ScheduleStore,
	catalog store.CatalogStore,
	shareTokens auth.ShareTokenService,
	logger *slog.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		schedules:   schedules,
		catalog:     catalog,
		shareTokens: shareTokens,
		logger:      logger.With("component", "schedule_service"),
	}
}

// Create implements ScheduleService.Create
func (s *ScheduleServiceImpl) Create(
	ctx context.Context,
	userID, termID uuid.UUID,
	name string,
) (*domain.Schedule, error) {
	schedule, err := domain.NewSchedule(userID, termID, name)
	if err != nil {
		return nil, err
	}

	if err := s.schedules.Create(ctx, schedule); err != nil {
		if !errors.Is(err, store.ErrInvalidEntity) {
			s.logger.Error("failed to create schedule",
				"error", err,
				"user_id", userID)
		}
		return nil, err
	}

	return schedule, nil
}

// List implements ScheduleService.List
func (s *ScheduleServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	termID *uuid.UUID,
) ([]domain.Schedule, error) {
	schedules, err := s.schedules.ListByUser(ctx, userID, termID)
	if err != nil {
		s.logger.Error("failed to list schedules",
			"error", err,
			"user_id", userID)
		return nil, err
	}
	return schedules, nil
}

// Get implements ScheduleService.Get
func (s *ScheduleServiceImpl) Get(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, schedule)
	return schedule, nil
}

// GetShared implements ScheduleService.GetShared
func (s *ScheduleServiceImpl) GetShared(
	ctx context.Context,
	scheduleID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, schedule)
	return schedule, nil
}

// Update implements ScheduleService.Update
func (s *ScheduleServiceImpl) Update(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
	upd ScheduleUpdate,
) (*domain.Schedule, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		schedule.Name = *upd.Name
	}
	if upd.Draft != nil {
		// Promoting a draft to a final schedule requires a clean grid.
		if !*upd.Draft && len(schedule.Conflicts()) > 0 {
			return nil, domain.ErrScheduleHasConflicts
		}
		schedule.Draft = *upd.Draft
	}
	schedule.UpdatedAt = time.Now().UTC()

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// AddSection implements ScheduleService.AddSection
func (s *ScheduleServiceImpl) AddSection(
	ctx context.Context,
	userID, scheduleID, sectionID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	section, err := s.catalog.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	course, err := s.catalog.GetCourse(ctx, section.CourseID)
	if err != nil {
		return nil, err
	}

	if course.TermID != schedule.TermID {
		return nil, domain.ErrEntryWrongTerm
	}

	entry := domain.ScheduleEntry{
		SectionID:   section.ID,
		CourseID:    course.ID,
		CourseCode:  course.Code,
		CourseTitle: course.Title,
		SectionCode: section.Code,
		Meetings:    section.Meetings,
	}

	if err := schedule.AddEntry(entry); err != nil {
		return nil, err
	}

	// Draft schedules may hold conflicting picks while the user shuffles
	// sections around; final schedules stay conflict-free.
	if !schedule.Draft && len(schedule.Conflicts()) > 0 {
		return nil, domain.ErrScheduleHasConflicts
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.Debug("section added to schedule",
		"schedule_id", schedule.ID,
		"section_id", sectionID)
	return schedule, nil
}

// RemoveSection implements ScheduleService.RemoveSection
func (s *ScheduleServiceImpl) RemoveSection(
	ctx context.Context,
	userID, scheduleID, sectionID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	if err := schedule.RemoveSection(sectionID); err != nil {
		return nil, err
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Clear implements ScheduleService.Clear
func (s *ScheduleServiceImpl) Clear(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	schedule.Clear()

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Validate implements ScheduleService.Validate
func (s *ScheduleServiceImpl) Validate(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
) ([]domain.Conflict, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	return schedule.Conflicts(), nil
}

// Delete implements ScheduleService.Delete
func (s *ScheduleServiceImpl) Delete(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, scheduleID); err != nil {
		return err
	}

	return s.schedules.Delete(ctx, scheduleID)
}

// Share implements ScheduleService.Share
func (s *ScheduleServiceImpl) Share(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
) (string, error) {
	if _, err := s.getOwned(ctx, userID, scheduleID); err != nil {
		return "", err
	}

	token, err := s.shareTokens.Generate(ctx, scheduleID)
	if err != nil {
		s.logger.Error("failed to generate share token",
			"error", err,
			"schedule_id", scheduleID)
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}

	s.logger.Info("share link minted",
		"schedule_id", scheduleID,
		"user_id", userID)
	return token, nil
}

// getOwned loads a schedule and enforces ownership. A schedule belonging to
// a different user is reported as not found so existence never leaks.
func (s *ScheduleServiceImpl) getOwned(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
) (*domain.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != userID {
		s.logger.Debug("schedule access denied",
			"schedule_id", scheduleID,
			"owner_id", schedule.UserID,
			"requester_id", userID)
		return nil, store.ErrScheduleNotFound
	}
	return schedule, nil
}

// reconcile flags entries whose snapshot no longer matches the live catalog:
// the section is gone, moved to another course, or meets at different times.
// Reconciliation is best-effort; catalog lookup failures leave the snapshot
// as saved rather than failing the read.
func (s *ScheduleServiceImpl) reconcile(ctx context.Context, schedule *domain.Schedule) {
	for i := range schedule.Entries {
		entry := &schedule.Entries[i]

		section, err := s.catalog.GetSection(ctx, entry.SectionID)
		if err != nil {
			if errors.Is(err, store.ErrSectionNotFound) {
				entry.Stale = true
				continue
			}
			s.logger.Warn("failed to reconcile schedule entry",
				"error", err,
				"schedule_id", schedule.ID,
				"section_id", entry.SectionID)
			continue
		}

		entry.Stale = section.CourseID != entry.CourseID ||
			!meetingsEqual(section.Meetings, entry.Meetings)
	}
}

// meetingsEqual compares two meeting patterns element-wise.
func meetingsEqual(a, b []domain.MeetingBlock) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
