package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
)

// CourseQuery narrows and pages a course listing within a term.
type CourseQuery struct {
	TermID uuid.UUID

	// Search matches course code or title, case-insensitively. Empty matches all.
	Search string

	Limit  int
	Offset int
}

// CatalogStore defines the interface for catalog persistence: terms,
// courses, and sections. Upserts key on the entity's natural code within its
// parent so repeated feed imports converge instead of duplicating.
type CatalogStore interface {
	// ListTerms returns all terms ordered by position.
	ListTerms(ctx context.Context) ([]domain.Term, error)

	// GetTermByCode retrieves a term by its code (e.g. "2026-fall").
	// Returns ErrTermNotFound if no such term exists.
	GetTermByCode(ctx context.Context, code string) (*domain.Term, error)

	// UpsertTerm inserts the term or updates name/position on code conflict.
	UpsertTerm(ctx context.Context, term *domain.Term) error

	// ListCourses returns courses matching the query, ordered by code,
	// without their sections. Also reports the total match count for paging.
	// Returns ErrTermNotFound if the queried term does not exist.
	ListCourses(ctx context.Context, q CourseQuery) ([]domain.Course, int, error)

	// GetCourse retrieves a course with its sections populated.
	// Returns ErrCourseNotFound if the course does not exist.
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// UpsertCourse inserts the course or updates title/description on
	// (term, code) conflict. The course's ID is replaced with the persisted
	// row's ID when the row already existed.
	UpsertCourse(ctx context.Context, course *domain.Course) error

	// GetSection retrieves a single section with its meeting blocks.
	// Returns ErrSectionNotFound if the section does not exist.
	GetSection(ctx context.Context, id uuid.UUID) (*domain.Section, error)

	// UpsertSection inserts the section or updates it on (course, code)
	// conflict, replacing its meeting blocks. The section's ID is replaced
	// with the persisted row's ID when the row already existed.
	UpsertSection(ctx context.Context, section *domain.Section) error

	// WithTx returns a new CatalogStore instance that uses the provided
	// transaction. Feed imports run entirely inside one transaction.
	WithTx(tx *sql.Tx) CatalogStore
}

// ImportStore defines the interface for catalog import bookkeeping.
type ImportStore interface {
	// Create saves a new pending import record.
	Create(ctx context.Context, imp *domain.CatalogImport) error

	// GetByID retrieves an import record.
	// Returns ErrImportNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogImport, error)

	// Update persists status, error text, and entity counts.
	// Returns ErrImportNotFound if the record does not exist.
	Update(ctx context.Context, imp *domain.CatalogImport) error

	// WithTx returns a new ImportStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ImportStore
}
