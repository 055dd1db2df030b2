package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docforge/internal/model"
	"docforge/internal/repository"
)

// TemplatePostgres is a PostgreSQL implementation of
// repository.TemplateRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type TemplatePostgres struct {
	db *sql.DB
}

// NewTemplatePostgres creates a new TemplatePostgres repository.
func NewTemplatePostgres(db *sql.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

const templateColumns = `id, name, category, description, current_version, file_path,
		placeholders, metadata, file_type, is_active, created_at, updated_at, created_by`

// Create inserts the template and its initial version row in one transaction.
func (r *TemplatePostgres) Create(ctx context.Context, tmpl *model.Template, version *model.TemplateVersion) (*model.Template, error) {
	placeholders, err := json.Marshal(tmpl.Placeholders)
	if err != nil {
		return nil, fmt.Errorf("marshal placeholders: %w", err)
	}
	metadata, err := marshalMetadata(tmpl.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qTemplate = `
		INSERT INTO templates (id, name, category, description, current_version, file_path,
			placeholders, metadata, file_type, is_active, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, qTemplate,
		tmpl.ID,
		tmpl.Name,
		tmpl.Category,
		tmpl.Description,
		tmpl.CurrentVersion,
		tmpl.FilePath,
		placeholders,
		metadata,
		tmpl.FileType,
		tmpl.IsActive,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
		tmpl.CreatedBy,
	); err != nil {
		return nil, err
	}

	if err := insertVersion(ctx, tx, version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// FindByID fetches a single template by its ID.
func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.Template, error) {
	q := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	return scanTemplate(r.db.QueryRowContext(ctx, q, id))
}

// List returns templates matching the filter using LIMIT/OFFSET pagination.
func (r *TemplatePostgres) List(ctx context.Context, f repository.TemplateFilter, pq repository.PageQuery) (*repository.PageResult[model.Template], error) {
	where := ` WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_active)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`+where, f.Category, f.ActiveOnly).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + templateColumns + ` FROM templates` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, q, f.Category, f.ActiveOnly, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Template]{Items: items, Total: total}, nil
}

// FindVersion fetches one immutable version row.
func (r *TemplatePostgres) FindVersion(ctx context.Context, templateID string, version int) (*model.TemplateVersion, error) {
	const q = `
		SELECT id, template_id, version, file_path, file_hash, description, change_summary, created_at, created_by
		FROM template_versions
		WHERE template_id = $1 AND version = $2
	`
	row := r.db.QueryRowContext(ctx, q, templateID, version)
	var v model.TemplateVersion
	if err := row.Scan(
		&v.ID,
		&v.TemplateID,
		&v.Version,
		&v.FilePath,
		&v.FileHash,
		&v.Description,
		&v.ChangeSummary,
		&v.CreatedAt,
		&v.CreatedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// AddVersion inserts a version row and bumps the template head with a
// compare-and-swap on the expected current version.
func (r *TemplatePostgres) AddVersion(ctx context.Context, version *model.TemplateVersion, expectedCurrent int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const qBump = `
		UPDATE templates
		SET current_version = $1, file_path = $2, updated_at = $3
		WHERE id = $4 AND current_version = $5
	`
	res, err := tx.ExecContext(ctx, qBump,
		version.Version,
		version.FilePath,
		version.CreatedAt,
		version.TemplateID,
		expectedCurrent,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrVersionConflict
	}

	if err := insertVersion(ctx, tx, version); err != nil {
		return err
	}
	return tx.Commit()
}

// Deactivate clears is_active on the template.
func (r *TemplatePostgres) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE templates SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
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

func insertVersion(ctx context.Context, tx *sql.Tx, v *model.TemplateVersion) error {
	const q = `
		INSERT INTO template_versions (id, template_id, version, file_path, file_hash,
			description, change_summary, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, q,
		v.ID,
		v.TemplateID,
		v.Version,
		v.FilePath,
		v.FileHash,
		v.Description,
		v.ChangeSummary,
		v.CreatedAt,
		v.CreatedBy,
	)
	return err
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		t            model.Template
		placeholders []byte
		metadata     []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Category,
		&t.Description,
		&t.CurrentVersion,
		&t.FilePath,
		&placeholders,
		&metadata,
		&t.FileType,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CreatedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(placeholders) > 0 {
		if err := json.Unmarshal(placeholders, &t.Placeholders); err != nil {
			return nil, fmt.Errorf("unmarshal placeholders: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &t, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
