package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docforge/internal/model"
	"docforge/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of
// repository.DocumentRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, template_id, template_version, doc_type, status, access_level,
		file_path, file_hash, file_size, mime_type, input_data, metadata, version,
		parent_document_id, created_at, updated_at, archived_at, created_by, updated_by,
		is_encrypted, encryption_key_id, is_readonly, retention_days`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO documents (id, title, template_id, template_version, doc_type, status, access_level,
			file_path, file_hash, file_size, mime_type, input_data, metadata, version,
			parent_document_id, created_at, updated_at, archived_at, created_by, updated_by,
			is_encrypted, encryption_key_id, is_readonly, retention_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	if _, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.TemplateID,
		doc.TemplateVersion,
		doc.DocType,
		doc.Status,
		doc.AccessLevel,
		doc.FilePath,
		doc.FileHash,
		doc.FileSize,
		doc.MimeType,
		doc.InputData,
		metadata,
		doc.Version,
		doc.ParentDocumentID,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.ArchivedAt,
		doc.CreatedBy,
		doc.UpdatedBy,
		doc.IsEncrypted,
		doc.EncryptionKeyID,
		doc.IsReadonly,
		doc.RetentionDays,
	); err != nil {
		return nil, err
	}
	return doc, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents matching the filter, newest first, with a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where := ` WHERE ($1 = '' OR doc_type = $1)
		AND ($2 = '' OR status = $2)
		AND ($3 = '' OR created_by = $3)
		AND ($4::timestamptz IS NULL OR created_at >= $4)
		AND ($5::timestamptz IS NULL OR created_at < $5)`
	args := []any{f.DocType, string(f.Status), f.CreatedBy, f.DateFrom, f.DateTo}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + documentColumns + ` FROM documents` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $6 OFFSET $7`
	rows, err := r.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// Archive marks the document archived. The status guard keeps deleted
// rows terminal.
func (r *DocumentPostgres) Archive(ctx context.Context, id string, archivedAt time.Time, readonly bool) error {
	const q = `
		UPDATE documents
		SET status = $1, archived_at = $2, is_readonly = $3, updated_at = $2
		WHERE id = $4 AND status <> $5
	`
	res, err := r.db.ExecContext(ctx, q, model.StatusArchived, archivedAt, readonly, id, model.StatusDeleted)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkDeleted moves the document to its terminal deleted status.
func (r *DocumentPostgres) MarkDeleted(ctx context.Context, id string) error {
	const q = `
		UPDATE documents
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`
	res, err := r.db.ExecContext(ctx, q, model.StatusDeleted, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SearchCandidates returns a bounded candidate set for in-memory relevance
// ranking. Matching is case-insensitive containment over title, doc_type
// and the metadata JSON text.
func (r *DocumentPostgres) SearchCandidates(ctx context.Context, q, docType string, dateFrom, dateTo *time.Time, limit int) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE status <> $1
		AND (title ILIKE $2 OR doc_type ILIKE $2 OR metadata::text ILIKE $2)
		AND ($3 = '' OR doc_type = $3)
		AND ($4::timestamptz IS NULL OR created_at >= $4)
		AND ($5::timestamptz IS NULL OR created_at < $5)
		ORDER BY created_at DESC, id DESC
		LIMIT $6`
	rows, err := r.db.QueryContext(ctx, query,
		model.StatusDeleted, "%"+q+"%", docType, dateFrom, dateTo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d        model.Document
		metadata []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.TemplateID,
		&d.TemplateVersion,
		&d.DocType,
		&d.Status,
		&d.AccessLevel,
		&d.FilePath,
		&d.FileHash,
		&d.FileSize,
		&d.MimeType,
		&d.InputData,
		&metadata,
		&d.Version,
		&d.ParentDocumentID,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ArchivedAt,
		&d.CreatedBy,
		&d.UpdatedBy,
		&d.IsEncrypted,
		&d.EncryptionKeyID,
		&d.IsReadonly,
		&d.RetentionDays,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &d, nil
}
