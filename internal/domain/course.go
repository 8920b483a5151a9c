package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for catalog entities
var (
	ErrTermIDEmpty        = errors.New("term ID cannot be empty")
	ErrTermCodeEmpty      = errors.New("term code cannot be empty")
	ErrCourseIDEmpty      = errors.New("course ID cannot be empty")
	ErrCourseTermEmpty    = errors.New("course term ID cannot be empty")
	ErrCourseCodeEmpty    = errors.New("course code cannot be empty")
	ErrCourseTitleEmpty   = errors.New("course title cannot be empty")
	ErrSectionIDEmpty     = errors.New("section ID cannot be empty")
	ErrSectionCourseEmpty = errors.New("section course ID cannot be empty")
	ErrSectionCodeEmpty   = errors.New("section code cannot be empty")
	ErrSectionNoMeetings  = errors.New("section must have at least one meeting block")
	ErrMeetingTimeInvalid = errors.New("meeting block times must satisfy 0 <= start < end <= 1440")
	ErrMeetingDayInvalid  = errors.New("meeting block weekday is invalid")
)

// minutesPerDay bounds meeting block times.
const minutesPerDay = 24 * 60

// Term is an academic term the catalog is partitioned by.
type Term struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"` // e.g. "2026-fall"
	Name string    `json:"name"` // e.g. "Fall 2026"

	// Position orders terms chronologically in listings.
	Position int `json:"position"`
}

// Validate checks if the Term has valid data.
func (t *Term) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTermIDEmpty
	}
	if t.Code == "" {
		return ErrTermCodeEmpty
	}
	return nil
}

// Course is a catalog course offered in a term.
type Course struct {
	ID          uuid.UUID `json:"id"`
	TermID      uuid.UUID `json:"term_id"`
	Code        string    `json:"code"`  // e.g. "CS 2110"
	Title       string    `json:"title"` // e.g. "Object-Oriented Programming"
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Sections is populated on detail fetches, not on list queries.
	Sections []Section `json:"sections,omitempty"`
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCourseIDEmpty
	}
	if c.TermID == uuid.Nil {
		return ErrCourseTermEmpty
	}
	if c.Code == "" {
		return ErrCourseCodeEmpty
	}
	if c.Title == "" {
		return ErrCourseTitleEmpty
	}
	return nil
}

// Section is one offering of a course with a concrete meeting pattern.
type Section struct {
	ID         uuid.UUID      `json:"id"`
	CourseID   uuid.UUID      `json:"course_id"`
	Code       string         `json:"code"` // e.g. "LEC 001"
	Instructor string         `json:"instructor"`
	Capacity   int            `json:"capacity"`
	Meetings   []MeetingBlock `json:"meetings"`
}

// Validate checks if the Section has valid data, including every meeting block.
func (s *Section) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSectionIDEmpty
	}
	if s.CourseID == uuid.Nil {
		return ErrSectionCourseEmpty
	}
	if s.Code == "" {
		return ErrSectionCodeEmpty
	}
	if len(s.Meetings) == 0 {
		return ErrSectionNoMeetings
	}
	for i, m := range s.Meetings {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("meeting block %d: %w", i, err)
		}
	}
	return nil
}

// MeetingBlock is a weekly recurring time slot. Times are minutes from
// midnight; the occupied range is [StartMinute, EndMinute).
type MeetingBlock struct {
	Weekday     time.Weekday `json:"weekday"`
	StartMinute int          `json:"start_minute"`
	EndMinute   int          `json:"end_minute"`
	Location    string       `json:"location"`
}

// Validate checks if the MeetingBlock has valid data.
func (m MeetingBlock) Validate() error {
	if m.Weekday < time.Sunday || m.Weekday > time.Saturday {
		return ErrMeetingDayInvalid
	}
	if m.StartMinute < 0 || m.EndMinute > minutesPerDay || m.StartMinute >= m.EndMinute {
		return ErrMeetingTimeInvalid
	}
	return nil
}

// Overlaps reports whether two meeting blocks occupy overlapping time on the
// same weekday. Back-to-back blocks (one ending exactly when the other
// starts) do not overlap.
func (m MeetingBlock) Overlaps(other MeetingBlock) bool {
	if m.Weekday != other.Weekday {
		return false
	}
	return m.StartMinute < other.EndMinute && other.StartMinute < m.EndMinute
}

// Equal reports whether two meeting blocks are identical. Used to detect
// stale schedule entries after catalog edits.
func (m MeetingBlock) Equal(other MeetingBlock) bool {
	return m.Weekday == other.Weekday &&
		m.StartMinute == other.StartMinute &&
		m.EndMinute == other.EndMinute &&
		m.Location == other.Location
}
