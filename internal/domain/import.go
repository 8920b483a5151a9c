package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ImportStatus represents the processing state of a catalog import.
type ImportStatus string

// Possible import status values
const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// Common validation errors for CatalogImport
var (
	ErrImportIDEmpty       = errors.New("import ID cannot be empty")
	ErrImportUserIDEmpty   = errors.New("import user ID cannot be empty")
	ErrInvalidImportStatus = errors.New("invalid import status")
)

// CatalogImport tracks one asynchronous catalog feed ingestion: who staged
// it, where it is in the pipeline, and what it touched once finished.
type CatalogImport struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Status    ImportStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	Terms     int          `json:"terms"`
	Courses   int          `json:"courses"`
	Sections  int          `json:"sections"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewCatalogImport creates a pending import record for the given user.
func NewCatalogImport(userID uuid.UUID) (*CatalogImport, error) {
	now := time.Now().UTC()
	imp := &CatalogImport{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    ImportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := imp.Validate(); err != nil {
		return nil, err
	}

	return imp, nil
}

// Validate checks if the CatalogImport has valid data.
func (i *CatalogImport) Validate() error {
	if i.ID == uuid.Nil {
		return ErrImportIDEmpty
	}
	if i.UserID == uuid.Nil {
		return ErrImportUserIDEmpty
	}
	switch i.Status {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return nil
	default:
		return ErrInvalidImportStatus
	}
}
