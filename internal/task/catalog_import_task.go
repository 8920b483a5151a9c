package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/store"
)

// CatalogFeed is the wire format of a staged catalog import: a tree of
// terms, their courses, and each course's sections.
type CatalogFeed struct {
	Terms []FeedTerm `json:"terms"`
}

// FeedTerm is one term in a catalog feed.
type FeedTerm struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Position int          `json:"position"`
	Courses  []FeedCourse `json:"courses"`
}

// FeedCourse is one course in a catalog feed.
type FeedCourse struct {
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Sections    []FeedSection `json:"sections"`
}

// FeedSection is one section in a catalog feed. Meeting blocks use the
// domain JSON shape (weekday, start_minute, end_minute, location).
type FeedSection struct {
	Code       string                `json:"code"`
	Instructor string                `json:"instructor"`
	Capacity   int                   `json:"capacity"`
	Meetings   []domain.MeetingBlock `json:"meetings"`
}

// CatalogImportTask ingests one staged catalog feed. The whole feed is
// upserted inside a single transaction, so a failed import leaves the
// catalog untouched. The task owns its import record and keeps its status
// current as it moves through the pipeline.
type CatalogImportTask struct {
	imp     *domain.CatalogImport
	feed    []byte
	db      *sql.DB
	catalog store.CatalogStore
	imports store.ImportStore
	logger  *slog.Logger

	// runInTx wraps the import transaction; injectable for testing.
	runInTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// Ensure CatalogImportTask implements Task interface
var _ Task = (*CatalogImportTask)(nil)

// NewCatalogImportTask creates an import task for a staged feed.
func NewCatalogImportTask(
	imp *domain.CatalogImport,
	feed []byte,
	db *sql.DB,
	catalog store.CatalogStore,
	imports store.ImportStore,
	logger *slog.Logger,
) *CatalogImportTask {
	return &CatalogImportTask{
		imp:     imp,
		feed:    feed,
		db:      db,
		catalog: catalog,
		imports: imports,
		logger:  logger.With(slog.String("component", "catalog_import_task")),
		runInTx: store.RunInTransaction,
	}
}

// ID implements Task.ID. The task shares its identifier with the import
// record so status queries need no extra mapping.
func (t *CatalogImportTask) ID() uuid.UUID {
	return t.imp.ID
}

// Type implements Task.Type
func (t *CatalogImportTask) Type() string {
	return TaskTypeCatalogImport
}

// Execute implements Task.Execute
func (t *CatalogImportTask) Execute(ctx context.Context) error {
	if err := t.setStatus(ctx, domain.ImportStatusProcessing, ""); err != nil {
		return err
	}

	var feed CatalogFeed
	if err := json.Unmarshal(t.feed, &feed); err != nil {
		wrapped := fmt.Errorf("failed to parse catalog feed: %w", err)
		t.fail(ctx, wrapped)
		return wrapped
	}

	var terms, courses, sections int
	err := t.runInTx(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		catalog := t.catalog.WithTx(tx)

		for _, ft := range feed.Terms {
			// Resolve by code first so a re-imported term keeps its row
			// ID and existing schedules stay attached to it.
			term, err := catalog.GetTermByCode(ctx, ft.Code)
			switch {
			case errors.Is(err, store.ErrTermNotFound):
				term = &domain.Term{ID: uuid.New(), Code: ft.Code}
			case err != nil:
				return fmt.Errorf("term %q: %w", ft.Code, err)
			}
			term.Name = ft.Name
			term.Position = ft.Position

			if err := catalog.UpsertTerm(ctx, term); err != nil {
				return fmt.Errorf("term %q: %w", ft.Code, err)
			}
			terms++

			for _, fc := range ft.Courses {
				now := time.Now().UTC()
				course := &domain.Course{
					ID:          uuid.New(),
					TermID:      term.ID,
					Code:        fc.Code,
					Title:       fc.Title,
					Description: fc.Description,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := catalog.UpsertCourse(ctx, course); err != nil {
					return fmt.Errorf("course %q: %w", fc.Code, err)
				}
				courses++

				for _, fs := range fc.Sections {
					section := &domain.Section{
						ID:         uuid.New(),
						CourseID:   course.ID,
						Code:       fs.Code,
						Instructor: fs.Instructor,
						Capacity:   fs.Capacity,
						Meetings:   fs.Meetings,
					}
					if err := catalog.UpsertSection(ctx, section); err != nil {
						return fmt.Errorf("section %q of course %q: %w", fs.Code, fc.Code, err)
					}
					sections++
				}
			}
		}

		return nil
	})

	if err != nil {
		t.fail(ctx, err)
		return err
	}

	t.imp.Terms = terms
	t.imp.Courses = courses
	t.imp.Sections = sections
	if err := t.setStatus(ctx, domain.ImportStatusCompleted, ""); err != nil {
		return err
	}

	t.logger.Info("catalog import completed",
		"import_id", t.imp.ID,
		"terms", terms,
		"courses", courses,
		"sections", sections)
	return nil
}

// fail records a failed import. The bookkeeping error, if any, is logged
// and swallowed; the execution error is what callers see.
func (t *CatalogImportTask) fail(ctx context.Context, cause error) {
	if err := t.setStatus(ctx, domain.ImportStatusFailed, cause.Error()); err != nil {
		t.logger.Error("failed to record import failure",
			"error", err,
			"import_id", t.imp.ID,
			"cause", cause)
	}
}

func (t *CatalogImportTask) setStatus(
	ctx context.Context,
	status domain.ImportStatus,
	errMsg string,
) error {
	t.imp.Status = status
	t.imp.Error = errMsg
	t.imp.UpdatedAt = time.Now().UTC()

	if err := t.imports.Update(ctx, t.imp); err != nil {
		return fmt.Errorf("failed to update import status to %s: %w", status, err)
	}
	return nil
}
