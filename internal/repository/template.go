package repository

import (
	"context"

	"docforge/internal/model"
)

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	Category string
	// ActiveOnly excludes deactivated templates when true.
	ActiveOnly bool
}

// TemplateRepository defines data access for templates and their immutable
// version rows. No business logic here — strictly persistence operations.
type TemplateRepository interface {
	// Create inserts the template together with its initial version row in
	// one transaction. Returns the stored template.
	Create(ctx context.Context, tmpl *model.Template, version *model.TemplateVersion) (*model.Template, error)

	// FindByID returns a template by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Template, error)

	// List returns a paginated list of templates matching the filter.
	List(ctx context.Context, f TemplateFilter, pq PageQuery) (*PageResult[model.Template], error)

	// FindVersion returns one immutable version row, or ErrNotFound.
	FindVersion(ctx context.Context, templateID string, version int) (*model.TemplateVersion, error)

	// AddVersion inserts a version row and bumps the template's
	// current_version and file_path in one transaction. The bump is a
	// compare-and-swap keyed on the expected current version; a stale
	// expectation returns ErrVersionConflict without inserting anything.
	AddVersion(ctx context.Context, version *model.TemplateVersion, expectedCurrent int) error

	// Deactivate clears is_active. Returns ErrNotFound for unknown IDs.
	Deactivate(ctx context.Context, id string) error
}
