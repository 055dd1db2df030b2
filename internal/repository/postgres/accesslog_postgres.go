package postgres

import (
	"context"
	"database/sql"

	"docforge/internal/model"
	"docforge/internal/repository"
)

// AccessLogPostgres is a PostgreSQL implementation of
// repository.AccessLogRepository. The table is append-only; no UPDATE or
// DELETE statement exists here.
type AccessLogPostgres struct {
	db *sql.DB
}

// NewAccessLogPostgres creates a new AccessLogPostgres repository.
func NewAccessLogPostgres(db *sql.DB) *AccessLogPostgres {
	return &AccessLogPostgres{db: db}
}

var _ repository.AccessLogRepository = (*AccessLogPostgres)(nil)

// Insert appends one audit record.
func (r *AccessLogPostgres) Insert(ctx context.Context, entry *model.DocumentAccessLog) error {
	const q = `
		INSERT INTO document_access_logs (id, document_id, user_id, action, ip_address,
			user_agent, status, reason, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		entry.ID,
		entry.DocumentID,
		entry.UserID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.Status,
		entry.Reason,
		entry.AccessedAt,
	)
	return err
}

// ListByDocument returns the audit trail for a document, newest first.
func (r *AccessLogPostgres) ListByDocument(ctx context.Context, documentID string, pq repository.PageQuery) (*repository.PageResult[model.DocumentAccessLog], error) {
	const qCount = `SELECT COUNT(*) FROM document_access_logs WHERE document_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, documentID).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, document_id, user_id, action, ip_address, user_agent, status, reason, accessed_at
		FROM document_access_logs
		WHERE document_id = $1
		ORDER BY accessed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, q, documentID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentAccessLog, 0)
	for rows.Next() {
		var e model.DocumentAccessLog
		if err := rows.Scan(
			&e.ID,
			&e.DocumentID,
			&e.UserID,
			&e.Action,
			&e.IPAddress,
			&e.UserAgent,
			&e.Status,
			&e.Reason,
			&e.AccessedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentAccessLog]{Items: items, Total: total}, nil
}
