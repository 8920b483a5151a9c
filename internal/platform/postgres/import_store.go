package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/platform/logger"
	"github.com/schedr/schedr-api/internal/store"
)

// PostgresImportStore implements the store.ImportStore interface
// using a PostgreSQL database as the storage backend.
type PostgresImportStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresImportStore creates a new PostgreSQL implementation of the
// ImportStore interface.
func NewPostgresImportStore(db store.DBTX, logger *slog.Logger) *PostgresImportStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImportStore{
		db:     db,
		logger: logger.With(slog.String("component", "import_store")),
	}
}

// Ensure PostgresImportStore implements store.ImportStore interface
var _ store.ImportStore = (*PostgresImportStore)(nil)

// Create implements store.ImportStore.Create
func (s *PostgresImportStore) Create(ctx context.Context, imp *domain.CatalogImport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := imp.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO catalog_imports
			(id, user_id, status, error, terms, courses, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		imp.ID,
		imp.UserID,
		imp.Status,
		imp.Error,
		imp.Terms,
		imp.Courses,
		imp.Sections,
		imp.CreatedAt,
		imp.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrInvalidEntity
		}
		log.Error("failed to create catalog import",
			slog.String("error", err.Error()),
			slog.String("import_id", imp.ID.String()))
		return err
	}

	log.Debug("catalog import staged",
		slog.String("import_id", imp.ID.String()))
	return nil
}

// GetByID implements store.ImportStore.GetByID
// Returns store.ErrImportNotFound if the record does not exist.
func (s *PostgresImportStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.CatalogImport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, status, error, terms, courses, sections, created_at, updated_at
		FROM catalog_imports
		WHERE id = $1
	`

	var imp domain.CatalogImport
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&imp.ID,
		&imp.UserID,
		&status,
		&imp.Error,
		&imp.Terms,
		&imp.Courses,
		&imp.Sections,
		&imp.CreatedAt,
		&imp.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrImportNotFound
		}
		log.Error("failed to get catalog import",
			slog.String("error", err.Error()),
			slog.String("import_id", id.String()))
		return nil, err
	}

	imp.Status = domain.ImportStatus(status)
	return &imp, nil
}

// Update implements store.ImportStore.Update
// Returns store.ErrImportNotFound if the record does not exist.
func (s *PostgresImportStore) Update(ctx context.Context, imp *domain.CatalogImport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := imp.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE catalog_imports
		SET status = $2, error = $3, terms = $4, courses = $5, sections = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		imp.ID,
		imp.Status,
		imp.Error,
		imp.Terms,
		imp.Courses,
		imp.Sections,
		imp.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update catalog import",
			slog.String("error", err.Error()),
			slog.String("import_id", imp.ID.String()))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrImportNotFound
	}

	return nil
}

// WithTx implements store.ImportStore.WithTx
func (s *PostgresImportStore) WithTx(tx *sql.Tx) store.ImportStore {
	return &PostgresImportStore{
		db:     tx,
		logger: s.logger,
	}
}
