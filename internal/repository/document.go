package repository

import (
	"context"
	"time"

	"docforge/internal/model"
)

// DocumentFilter narrows document listings. Zero values mean "any".
type DocumentFilter struct {
	DocType   string
	Status    model.DocumentStatus
	CreatedBy string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// DocumentRepository defines data access for document metadata using SQL
// queries only. No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns documents matching the filter, newest first, with a
	// total row count.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// Archive marks the document archived. Deleted documents are never
	// touched; attempting to archive one returns ErrNotFound.
	Archive(ctx context.Context, id string, archivedAt time.Time, readonly bool) error

	// MarkDeleted moves the document to its terminal deleted status. The
	// row is retained. Already-deleted rows are left alone and reported
	// via ErrNotFound.
	MarkDeleted(ctx context.Context, id string) error

	// SearchCandidates returns a bounded candidate set for in-memory
	// relevance ranking: case-insensitive containment over title,
	// doc_type and metadata text, optionally constrained by doc type and
	// creation date range.
	SearchCandidates(ctx context.Context, q, docType string, dateFrom, dateTo *time.Time, limit int) ([]model.Document, error)
}
