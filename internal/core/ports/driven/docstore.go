package driven

import (
	"context"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// DocumentStore persists document metadata records. The authoritative
// record of what has been ingested lives here; the vector index is
// cleaned up best-effort when a record is deleted.
type DocumentStore interface {
	// CreateDocument registers a new document record.
	// Returns domain.ErrAlreadyExists when the source name is taken.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetBySource retrieves a document record by its source name.
	// Returns domain.ErrNotFound when absent.
	GetBySource(ctx context.Context, source string) (*domain.Document, error)

	// ListDocuments returns all document records, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UpdateStatus sets a document's processing status and chunk count.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount int) error

	// DeleteDocument removes a document record.
	// Returns domain.ErrNotFound when absent.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
