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

var documentTestColumns = []string{
	"id", "title", "template_id", "template_version", "doc_type", "status", "access_level",
	"file_path", "file_hash", "file_size", "mime_type", "input_data", "metadata", "version",
	"parent_document_id", "created_at", "updated_at", "archived_at", "created_by", "updated_by",
	"is_encrypted", "encryption_key_id", "is_readonly", "retention_days",
}

func addDocumentRow(rows *sqlmock.Rows, id string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "report_202405", "tmpl-1", 2, "report", "generated", "internal",
		"documents/report/20240501/report_202405.pdf", "abc123", int64(2048), "application/pdf",
		`{"customer":"Acme"}`, []byte(`{"tags":["monthly"]}`), 1,
		nil, now, now, nil, "user-1", nil,
		false, nil, false, nil,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:              "doc-uuid",
		Title:           "report_202405",
		TemplateID:      "tmpl-1",
		TemplateVersion: 2,
		DocType:         "report",
		Status:          model.StatusGenerated,
		AccessLevel:     model.AccessInternal,
		FilePath:        "documents/report/20240501/report_202405.pdf",
		FileHash:        "abc123",
		FileSize:        2048,
		MimeType:        "application/pdf",
		InputData:       `{"customer":"Acme"}`,
		Metadata:        map[string]any{model.MetaKeyTags: []string{"monthly"}},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       "user-1",
	}

	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := addDocumentRow(sqlmock.NewRows(documentTestColumns), "doc-1")

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "doc-1")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, model.StatusGenerated, doc.Status)
		assert.Nil(t, doc.ParentDocumentID)
		assert.Contains(t, doc.Metadata, model.MetaKeyTags)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(documentTestColumns))

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := addDocumentRow(sqlmock.NewRows(documentTestColumns), "doc-1")
	mock.ExpectQuery("SELECT (.+) FROM documents (.+) ORDER BY").
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.DocumentFilter{DocType: "report"}, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Archive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Archive(ctx, "doc-1", now, true))
	})

	t.Run("deleted rows stay deleted", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Archive(ctx, "doc-gone", now, false), repository.ErrNotFound)
	})
}

func TestDocumentPostgres_MarkDeleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkDeleted(ctx, "doc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SearchCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	rows := addDocumentRow(sqlmock.NewRows(documentTestColumns), "doc-1")
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WillReturnRows(rows)

	docs, err := repo.SearchCandidates(ctx, "report", "", nil, nil, 50)

	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
