package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"docforge/internal/model"
	"docforge/internal/repository"
)

func TestTemplatePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplatePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	tmpl := &model.Template{
		ID:             "tmpl-uuid",
		Name:           "invoice",
		Category:       "billing",
		CurrentVersion: 1,
		FilePath:       "templates/billing/invoice_20240501.html",
		Placeholders:   []model.Placeholder{{Name: "customer", Type: model.PlaceholderText, Required: true}},
		FileType:       model.FileTypeHTML,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      "user-1",
	}
	version := &model.TemplateVersion{
		ID:         "ver-uuid",
		TemplateID: tmpl.ID,
		Version:    1,
		FilePath:   tmpl.FilePath,
		FileHash:   "abc123",
		CreatedAt:  now,
		CreatedBy:  "user-1",
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO templates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO template_versions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Create(ctx, tmpl, version)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, tmpl.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplatePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplatePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "category", "description", "current_version", "file_path",
			"placeholders", "metadata", "file_type", "is_active", "created_at", "updated_at", "created_by",
		}).AddRow(
			"tmpl-1", "invoice", "billing", "", 2, "templates/billing/invoice_v2.html",
			[]byte(`[{"name":"customer","type":"text","required":true}]`), []byte(`{}`),
			"html", true, time.Now(), time.Now(), "user-1",
		)

		mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ?").
			WithArgs("tmpl-1").
			WillReturnRows(rows)

		tmpl, err := repo.FindByID(ctx, "tmpl-1")

		assert.NoError(t, err)
		assert.NotNil(t, tmpl)
		assert.Equal(t, 2, tmpl.CurrentVersion)
		assert.Len(t, tmpl.Placeholders, 1)
		assert.Equal(t, "customer", tmpl.Placeholders[0].Name)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		tmpl, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, tmpl)
	})
}

func TestTemplatePostgres_AddVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplatePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	version := &model.TemplateVersion{
		ID:         "ver-2",
		TemplateID: "tmpl-1",
		Version:    2,
		FilePath:   "templates/billing/invoice_v2.html",
		FileHash:   "def456",
		CreatedAt:  now,
		CreatedBy:  "user-1",
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE templates").
			WithArgs(2, version.FilePath, now, "tmpl-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO template_versions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.AddVersion(ctx, version, 1)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale current version", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE templates").
			WithArgs(2, version.FilePath, now, "tmpl-1", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.AddVersion(ctx, version, 1)

		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTemplatePostgres_Deactivate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplatePostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE templates SET is_active").
			WithArgs("tmpl-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Deactivate(ctx, "tmpl-1"))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE templates SET is_active").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Deactivate(ctx, "missing"), repository.ErrNotFound)
	})
}
