package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/store"
	"github.com/schedr/schedr-api/internal/task"
)

// CatalogService provides read access to the course catalog and the entry
// point for asynchronous feed imports.
type CatalogService interface {
	// ListTerms returns all terms in display order.
	ListTerms(ctx context.Context) ([]domain.Term, error)

	// SearchCourses lists courses in a term matching the query.
	// Also returns the total match count for paging.
	SearchCourses(ctx context.Context, q store.CourseQuery) ([]domain.Course, int, error)

	// GetCourse returns a course with its sections.
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// StageImport records a pending import for the feed and enqueues it for
	// background processing. Returns ErrInvalidFeed for malformed JSON and
	// task.ErrQueueFull when the import queue is saturated.
	StageImport(ctx context.Context, userID uuid.UUID, feed []byte) (*domain.CatalogImport, error)

	// GetImport returns the current state of an import.
	GetImport(ctx context.Context, id uuid.UUID) (*domain.CatalogImport, error)
}

// CatalogServiceImpl implements the CatalogService interface
type CatalogServiceImpl struct {
	catalog store.CatalogStore
	imports store.ImportStore
	queue   task.QueueWriter
	db      *sql.DB
	logger  *slog.Logger
}

// Ensure CatalogServiceImpl implements CatalogService interface
var _ CatalogService = (*CatalogServiceImpl)(nil)

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	catalog store.CatalogStore,
	imports store.ImportStore,
	queue task.QueueWriter,
	db *sql.DB,
	logger *slog.Logger,
) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		catalog: catalog,
		imports: imports,
		queue:   queue,
		db:      db,
		logger:  logger.With("component", "catalog_service"),
	}
}

// ListTerms implements CatalogService.ListTerms
func (s *CatalogServiceImpl) ListTerms(ctx context.Context) ([]domain.Term, error) {
	terms, err := s.catalog.ListTerms(ctx)
	if err != nil {
		s.logger.Error("failed to list terms", "error", err)
		return nil, err
	}
	return terms, nil
}

// SearchCourses implements CatalogService.SearchCourses
func (s *CatalogServiceImpl) SearchCourses(
	ctx context.Context,
	q store.CourseQuery,
) ([]domain.Course, int, error) {
	courses, total, err := s.catalog.ListCourses(ctx, q)
	if err != nil {
		if !errors.Is(err, store.ErrTermNotFound) {
			s.logger.Error("failed to search courses",
				"error", err,
				"term_id", q.TermID)
		}
		return nil, 0, err
	}
	return courses, total, nil
}

// GetCourse implements CatalogService.GetCourse
func (s *CatalogServiceImpl) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := s.catalog.GetCourse(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrCourseNotFound) {
			s.logger.Error("failed to get course",
				"error", err,
				"course_id", id)
		}
		return nil, err
	}
	return course, nil
}

// StageImport implements CatalogService.StageImport
func (s *CatalogServiceImpl) StageImport(
	ctx context.Context,
	userID uuid.UUID,
	feed []byte,
) (*domain.CatalogImport, error) {
	// Cheap structural check before anything is persisted; full parsing
	// happens in the background task.
	if !json.Valid(feed) {
		return nil, ErrInvalidFeed
	}

	imp, err := domain.NewCatalogImport(userID)
	if err != nil {
		return nil, err
	}

	if err := s.imports.Create(ctx, imp); err != nil {
		s.logger.Error("failed to stage catalog import",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to stage catalog import: %w", err)
	}

	importTask := task.NewCatalogImportTask(imp, feed, s.db, s.catalog, s.imports, s.logger)
	if err := s.queue.Enqueue(importTask); err != nil {
		// The record stays behind marked failed so the client sees why the
		// import never ran.
		imp.Status = domain.ImportStatusFailed
		imp.Error = err.Error()
		if updateErr := s.imports.Update(ctx, imp); updateErr != nil {
			s.logger.Error("failed to mark unqueued import as failed",
				"error", updateErr,
				"import_id", imp.ID)
		}
		return nil, fmt.Errorf("failed to enqueue catalog import: %w", err)
	}

	s.logger.Info("catalog import staged",
		"import_id", imp.ID,
		"user_id", userID,
		"feed_bytes", len(feed))
	return imp, nil
}

// GetImport implements CatalogService.GetImport
func (s *CatalogServiceImpl) GetImport(
	ctx context.Context,
	id uuid.UUID,
) (*domain.CatalogImport, error) {
	imp, err := s.imports.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrImportNotFound) {
			s.logger.Error("failed to get catalog import",
				"error", err,
				"import_id", id)
		}
		return nil, err
	}
	return imp, nil
}
