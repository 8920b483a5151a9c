package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/store"
)

// defaultCourseLimit caps unbounded course listings.
const defaultCourseLimit = 50

// PostgresCatalogStore implements the store.CatalogStore interface
// using a PostgreSQL database as the storage backend. Meeting blocks are
// stored as a JSONB document on the section row.
type PostgresCatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCatalogStore creates a new PostgreSQL implementation of the
// CatalogStore interface.
func NewPostgresCatalogStore(db store.DBTX, logger *slog.Logger) *PostgresCatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// Ensure PostgresCatalogStore implements store.CatalogStore interface
var _ store.CatalogStore = (*PostgresCatalogStore)(nil)

// ListTerms implements store.CatalogStore.ListTerms
func (s *PostgresCatalogStore) ListTerms(ctx context.Context) ([]domain.Term, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, code, name, position FROM terms ORDER BY position, code`,
	)
	if err != nil {
		log.Error("failed to list terms", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var terms []domain.Term
	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Position); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}

	return terms, rows.Err()
}

// GetTermByCode implements store.CatalogStore.GetTermByCode
// Returns store.ErrTermNotFound if no such term exists.
func (s *PostgresCatalogStore) GetTermByCode(
	ctx context.Context,
	code string,
) (*domain.Term, error) {
	var t domain.Term
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, code, name, position FROM terms WHERE code = $1`,
		code,
	).Scan(&t.ID, &t.Code, &t.Name, &t.Position)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTermNotFound
		}
		return nil, err
	}

	return &t, nil
}

// UpsertTerm implements store.CatalogStore.UpsertTerm
func (s *PostgresCatalogStore) UpsertTerm(ctx context.Context, term *domain.Term) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := term.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO terms (id, code, name, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, position = EXCLUDED.position
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, term.ID, term.Code, term.Name, term.Position).
		Scan(&term.ID)
	if err != nil {
		log.Error("failed to upsert term",
			slog.String("error", err.Error()),
			slog.String("term_code", term.Code))
		return err
	}

	return nil
}

// ListCourses implements store.CatalogStore.ListCourses
func (s *PostgresCatalogStore) ListCourses(
	ctx context.Context,
	q store.CourseQuery,
) ([]domain.Course, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := q.Limit
	if limit <= 0 {
		limit = defaultCourseLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	pattern := "%" + q.Search + "%"

	// An unknown term is a 404, not an empty page.
	var termExists bool
	err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM terms WHERE id = $1)`,
		q.TermID,
	).Scan(&termExists)
	if err != nil {
		log.Error("failed to check term existence", slog.String("error", err.Error()))
		return nil, 0, err
	}
	if !termExists {
		return nil, 0, store.ErrTermNotFound
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM courses
		WHERE term_id = $1 AND (code ILIKE $2 OR title ILIKE $2)
	`
	if err := s.db.QueryRowContext(ctx, countQuery, q.TermID, pattern).Scan(&total); err != nil {
		log.Error("failed to count courses", slog.String("error", err.Error()))
		return nil, 0, err
	}

	listQuery := `
		SELECT id, term_id, code, title, description, created_at, updated_at
		FROM courses
		WHERE term_id = $1 AND (code ILIKE $2 OR title ILIKE $2)
		ORDER BY code
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.QueryContext(ctx, listQuery, q.TermID, pattern, limit, offset)
	if err != nil {
		log.Error("failed to list courses", slog.String("error", err.Error()))
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		err := rows.Scan(
			&c.ID,
			&c.TermID,
			&c.Code,
			&c.Title,
			&c.Description,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}

	return courses, total, rows.Err()
}

// GetCourse implements store.CatalogStore.GetCourse
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCatalogStore) GetCourse(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var c domain.Course
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, term_id, code, title, description, created_at, updated_at
		 FROM courses WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.TermID, &c.Code, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return nil, err
	}

	sections, err := s.listSections(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Sections = sections

	return &c, nil
}

// UpsertCourse implements store.CatalogStore.UpsertCourse
func (s *PostgresCatalogStore) UpsertCourse(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO courses (id, term_id, code, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (term_id, code) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		course.ID,
		course.TermID,
		course.Code,
		course.Title,
		course.Description,
		course.CreatedAt,
		course.UpdatedAt,
	).Scan(&course.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: term %s not found", store.ErrInvalidEntity, course.TermID)
		}
		log.Error("failed to upsert course",
			slog.String("error", err.Error()),
			slog.String("course_code", course.Code))
		return err
	}

	return nil
}

// GetSection implements store.CatalogStore.GetSection
// Returns store.ErrSectionNotFound if the section does not exist.
func (s *PostgresCatalogStore) GetSection(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Section, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sec domain.Section
	var meetings []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, course_id, code, instructor, capacity, meetings
		 FROM sections WHERE id = $1`,
		id,
	).Scan(&sec.ID, &sec.CourseID, &sec.Code, &sec.Instructor, &sec.Capacity, &meetings)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSectionNotFound
		}
		log.Error("failed to get section",
			slog.String("error", err.Error()),
			slog.String("section_id", id.String()))
		return nil, err
	}

	if err := json.Unmarshal(meetings, &sec.Meetings); err != nil {
		return nil, fmt.Errorf("failed to decode section meetings: %w", err)
	}

	return &sec, nil
}

// UpsertSection implements store.CatalogStore.UpsertSection
func (s *PostgresCatalogStore) UpsertSection(ctx context.Context, section *domain.Section) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := section.Validate(); err != nil {
		return err
	}

	meetings, err := json.Marshal(section.Meetings)
	if err != nil {
		return fmt.Errorf("failed to encode section meetings: %w", err)
	}

	query := `
		INSERT INTO sections (id, course_id, code, instructor, capacity, meetings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (course_id, code) DO UPDATE
		SET instructor = EXCLUDED.instructor,
		    capacity = EXCLUDED.capacity,
		    meetings = EXCLUDED.meetings
		RETURNING id
	`
	err = s.db.QueryRowContext(
		ctx,
		query,
		section.ID,
		section.CourseID,
		section.Code,
		section.Instructor,
		section.Capacity,
		meetings,
	).Scan(&section.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: course %s not found", store.ErrInvalidEntity, section.CourseID)
		}
		log.Error("failed to upsert section",
			slog.String("error", err.Error()),
			slog.String("section_code", section.Code))
		return err
	}

	return nil
}

// listSections loads every section of a course, ordered by section code.
func (s *PostgresCatalogStore) listSections(
	ctx context.Context,
	courseID uuid.UUID,
) ([]domain.Section, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, course_id, code, instructor, capacity, meetings
		 FROM sections WHERE course_id = $1 ORDER BY code`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sections []domain.Section
	for rows.Next() {
		var sec domain.Section
		var meetings []byte
		if err := rows.Scan(&sec.ID, &sec.CourseID, &sec.Code, &sec.Instructor, &sec.Capacity, &meetings); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meetings, &sec.Meetings); err != nil {
			return nil, fmt.Errorf("failed to decode section meetings: %w", err)
		}
		sections = append(sections, sec)
	}

	return sections, rows.Err()
}

// WithTx implements store.CatalogStore.WithTx
func (s *PostgresCatalogStore) WithTx(tx *sql.Tx) store.CatalogStore {
	return &PostgresCatalogStore{
		db:     tx,
		logger: s.logger,
	}
}
