package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Schedule
var (
	ErrScheduleIDEmpty      = errors.New("schedule ID cannot be empty")
	ErrScheduleUserIDEmpty  = errors.New("schedule user ID cannot be empty")
	ErrScheduleTermIDEmpty  = errors.New("schedule term ID cannot be empty")
	ErrScheduleNameEmpty    = errors.New("schedule name cannot be empty")
	ErrScheduleNameTooLong  = errors.New("schedule name must be at most 100 characters")
	ErrSectionAlreadyAdded  = errors.New("section is already on the schedule")
	ErrSectionNotOnSchedule = errors.New("section is not on the schedule")
	ErrEntryWrongTerm       = errors.New("section belongs to a different term than the schedule")
	ErrScheduleHasConflicts = errors.New("schedule has meeting conflicts")
)

// ScheduleEntry is one selected section on a schedule. It snapshots the
// course and section details at the time of selection so a saved schedule
// still renders after catalog edits. Stale is recomputed on load and never
// persisted.
type ScheduleEntry struct {
	SectionID   uuid.UUID      `json:"section_id"`
	CourseID    uuid.UUID      `json:"course_id"`
	CourseCode  string         `json:"course_code"`
	CourseTitle string         `json:"course_title"`
	SectionCode string         `json:"section_code"`
	Meetings    []MeetingBlock `json:"meetings"`
	Stale       bool           `json:"stale,omitempty"`
}

// Conflict is a pair of schedule entries with overlapping meeting blocks.
type Conflict struct {
	SectionA uuid.UUID    `json:"section_a"`
	SectionB uuid.UUID    `json:"section_b"`
	Weekday  time.Weekday `json:"weekday"`
}

// Schedule is a user's saved plan for a term: an ordered list of selected
// sections plus a name. A draft schedule may be saved with conflicts.
type Schedule struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	TermID    uuid.UUID       `json:"term_id"`
	Name      string          `json:"name"`
	Draft     bool            `json:"draft"`
	Entries   []ScheduleEntry `json:"entries"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSchedule creates an empty schedule for the given user and term.
func NewSchedule(userID, termID uuid.UUID, name string) (*Schedule, error) {
	now := time.Now().UTC()
	schedule := &Schedule{
		ID:        uuid.New(),
		UserID:    userID,
		TermID:    termID,
		Name:      name,
		Draft:     true,
		Entries:   []ScheduleEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Validate checks if the Schedule has valid data.
func (s *Schedule) Validate() error {
	if s.ID == uuid.Nil {
		return ErrScheduleIDEmpty
	}
	if s.UserID == uuid.Nil {
		return ErrScheduleUserIDEmpty
	}
	if s.TermID == uuid.Nil {
		return ErrScheduleTermIDEmpty
	}
	if s.Name == "" {
		return ErrScheduleNameEmpty
	}
	if len(s.Name) > 100 {
		return ErrScheduleNameTooLong
	}
	for i, e := range s.Entries {
		for _, m := range e.Meetings {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
		}
	}
	return nil
}

// AddEntry places a section on the schedule. Adding a section that is
// already present returns ErrSectionAlreadyAdded. Adding a different section
// of a course that already has an entry replaces that entry, preserving the
// one-section-per-course grid semantics.
func (s *Schedule) AddEntry(entry ScheduleEntry) error {
	for i, existing := range s.Entries {
		if existing.SectionID == entry.SectionID {
			return ErrSectionAlreadyAdded
		}
		if existing.CourseID == entry.CourseID {
			s.Entries[i] = entry
			s.touch()
			return nil
		}
	}

	s.Entries = append(s.Entries, entry)
	s.touch()
	return nil
}

// RemoveSection takes a section off the schedule.
// Returns ErrSectionNotOnSchedule if it is not present.
func (s *Schedule) RemoveSection(sectionID uuid.UUID) error {
	for i, existing := range s.Entries {
		if existing.SectionID == sectionID {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			s.touch()
			return nil
		}
	}
	return ErrSectionNotOnSchedule
}

// Clear removes every entry from the schedule.
func (s *Schedule) Clear() {
	s.Entries = []ScheduleEntry{}
	s.touch()
}

// HasSection reports whether the given section is on the schedule.
func (s *Schedule) HasSection(sectionID uuid.UUID) bool {
	for _, e := range s.Entries {
		if e.SectionID == sectionID {
			return true
		}
	}
	return false
}

// Conflicts returns every pairwise meeting conflict between entries.
// Each section pair is reported at most once even when multiple blocks clash.
func (s *Schedule) Conflicts() []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(s.Entries); i++ {
		for j := i + 1; j < len(s.Entries); j++ {
			if weekday, ok := entriesOverlap(s.Entries[i], s.Entries[j]); ok {
				conflicts = append(conflicts, Conflict{
					SectionA: s.Entries[i].SectionID,
					SectionB: s.Entries[j].SectionID,
					Weekday:  weekday,
				})
			}
		}
	}
	return conflicts
}

// entriesOverlap reports the first weekday on which two entries clash.
func entriesOverlap(a, b ScheduleEntry) (time.Weekday, bool) {
	for _, ma := range a.Meetings {
		for _, mb := range b.Meetings {
			if ma.Overlaps(mb) {
				return ma.Weekday, true
			}
		}
	}
	return 0, false
}

func (s *Schedule) touch() {
	s.UpdatedAt = time.Now().UTC()
}
