package repository

import (
	"context"

	"docforge/internal/model"
)

// AccessLogRepository is the append-only audit trail store. The interface
// deliberately has no update or delete operations.
type AccessLogRepository interface {
	// Insert appends one audit record.
	Insert(ctx context.Context, entry *model.DocumentAccessLog) error

	// ListByDocument returns the audit trail for a document, newest first.
	ListByDocument(ctx context.Context, documentID string, pq PageQuery) (*PageResult[model.DocumentAccessLog], error)
}
