package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docforge/internal/access"
	"docforge/internal/logger"
	"docforge/internal/model"
	"docforge/internal/postprocess"
	ppMocks "docforge/internal/postprocess/mocks"
	"docforge/internal/render"
	renderMocks "docforge/internal/render/mocks"
	"docforge/internal/repository"
	repoMocks "docforge/internal/repository/mocks"
	"docforge/internal/storage"
	storeMocks "docforge/internal/storage/mocks"
)

type docSvcMocks struct {
	store     *storeMocks.MockBackend
	templates *repoMocks.MockTemplateRepository
	documents *repoMocks.MockDocumentRepository
	logs      *repoMocks.MockAccessLogRepository
	layout    *renderMocks.MockFixedLayoutRenderer
}

func newDocService(t *testing.T) (DocumentService, *docSvcMocks) {
	t.Helper()
	m := &docSvcMocks{
		store:     new(storeMocks.MockBackend),
		templates: new(repoMocks.MockTemplateRepository),
		documents: new(repoMocks.MockDocumentRepository),
		logs:      new(repoMocks.MockAccessLogRepository),
		layout:    new(renderMocks.MockFixedLayoutRenderer),
	}
	svc := NewDocumentService(
		m.store, m.templates, m.documents, m.logs,
		render.NewEngines(m.layout),
		postprocess.NewChain(new(ppMocks.MockEncrypter), logger.NewNop()),
		access.NewEngine(),
		logger.NewNop(),
	)
	return svc, m
}

func htmlTemplate() *model.Template {
	return &model.Template{
		ID:             "tmpl-1",
		Name:           "invoice",
		Category:       "billing",
		CurrentVersion: 2,
		FilePath:       "templates/billing/invoice_v2.html",
		Placeholders:   []model.Placeholder{{Name: "customer", Type: model.PlaceholderText, Required: true}},
		FileType:       model.FileTypeHTML,
		IsActive:       true,
	}
}

func TestDocumentService_Generate(t *testing.T) {
	ctx := context.Background()
	pdfBytes := []byte("%PDF-1.7 rendered")

	tests := []struct {
		name       string
		in         GenerateInput
		setupMocks func(m *docSvcMocks)
		wantErr    error
		wantErrMsg string
		checkDoc   func(t *testing.T, doc *model.Document)
	}{
		{
			name: "happy path",
			in: GenerateInput{
				TemplateID: "tmpl-1",
				Data:       map[string]any{"customer": "Acme"},
				CreatedBy:  "user-1",
				DocType:    "report",
				Title:      "acme_invoice",
				Tags:       []string{"monthly"},
			},
			setupMocks: func(m *docSvcMocks) {
				m.templates.On("FindByID", ctx, "tmpl-1").Return(htmlTemplate(), nil)
				m.store.On("Download", ctx, "templates/billing/invoice_v2.html").
					Return([]byte("Hello {{customer}}!"), nil)
				m.layout.On("RenderHTML", ctx, "Hello Acme!").Return(pdfBytes, nil)
				m.store.On("Upload", ctx, mock.MatchedBy(func(path string) bool {
					return strings.HasPrefix(path, "documents/report/") && strings.HasSuffix(path, "/acme_invoice.pdf")
				}), pdfBytes, mock.Anything).Return(storage.UploadInfo{Hash: "hash-1", Size: int64(len(pdfBytes))}, nil)
				m.documents.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Status == model.StatusGenerated &&
						doc.AccessLevel == model.AccessInternal &&
						doc.TemplateVersion == 2 &&
						doc.FileHash == "hash-1" &&
						doc.MimeType == "application/pdf"
				})).Return(&model.Document{ID: "doc-1"}, nil)
			},
			checkDoc: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "doc-1", doc.ID)
			},
		},
		{
			name: "template not found",
			in:   GenerateInput{TemplateID: "missing", Data: map[string]any{}},
			setupMocks: func(m *docSvcMocks) {
				m.templates.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrTemplateNotFound,
		},
		{
			name: "inactive template behaves as absent",
			in:   GenerateInput{TemplateID: "tmpl-1", Data: map[string]any{"customer": "Acme"}},
			setupMocks: func(m *docSvcMocks) {
				tmpl := htmlTemplate()
				tmpl.IsActive = false
				m.templates.On("FindByID", ctx, "tmpl-1").Return(tmpl, nil)
			},
			wantErr: ErrTemplateNotFound,
		},
		{
			name: "missing required placeholder",
			in:   GenerateInput{TemplateID: "tmpl-1", Data: map[string]any{}},
			setupMocks: func(m *docSvcMocks) {
				m.templates.On("FindByID", ctx, "tmpl-1").Return(htmlTemplate(), nil)
			},
			wantErr: ErrMissingPlaceholder,
		},
		{
			name: "invalid access level",
			in: GenerateInput{
				TemplateID:  "tmpl-1",
				Data:        map[string]any{"customer": "Acme"},
				AccessLevel: "ultra",
			},
			setupMocks: func(m *docSvcMocks) {
				m.templates.On("FindByID", ctx, "tmpl-1").Return(htmlTemplate(), nil)
			},
			wantErr: ErrInvalidAccessLevel,
		},
		{
			name: "repository error rolls back storage",
			in: GenerateInput{
				TemplateID: "tmpl-1",
				Data:       map[string]any{"customer": "Acme"},
				Title:      "acme_invoice",
			},
			setupMocks: func(m *docSvcMocks) {
				m.templates.On("FindByID", ctx, "tmpl-1").Return(htmlTemplate(), nil)
				m.store.On("Download", ctx, mock.Anything).Return([]byte("Hello {{customer}}!"), nil)
				m.layout.On("RenderHTML", ctx, mock.Anything).Return(pdfBytes, nil)
				m.store.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.UploadInfo{Hash: "hash-1"}, nil)
				m.documents.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				m.store.On("Delete", ctx, mock.Anything).Return(true, nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newDocService(t)
			tt.setupMocks(m)

			doc, err := svc.Generate(ctx, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				if tt.checkDoc != nil {
					tt.checkDoc(t, doc)
				}
			}
			m.store.AssertExpectations(t)
			m.templates.AssertExpectations(t)
			m.documents.AssertExpectations(t)
		})
	}
}

func auditWith(action model.AccessAction, status model.AccessStatus, reason string) any {
	return mock.MatchedBy(func(e *model.DocumentAccessLog) bool {
		return e.Action == action && e.Status == status && e.Reason == reason
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	internalDoc := &model.Document{
		ID: "doc-1", Status: model.StatusGenerated, AccessLevel: model.AccessInternal,
	}

	t.Run("success writes view audit row", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("FindByID", ctx, "doc-1").Return(internalDoc, nil)
		m.logs.On("Insert", ctx, auditWith(model.ActionView, model.AccessSuccess, "")).Return(nil)

		doc, err := svc.Get(ctx, "doc-1", "user-1", access.RoleUser)

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		m.logs.AssertNumberOfCalls(t, "Insert", 1)
	})

	t.Run("level denial is indistinguishable from absence", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("FindByID", ctx, "doc-1").Return(internalDoc, nil)
		m.logs.On("Insert", ctx, auditWith(model.ActionView, model.AccessDenied, "access level denied")).Return(nil)

		doc, err := svc.Get(ctx, "doc-1", "guest-1", access.RoleGuest)

		assert.NoError(t, err)
		assert.Nil(t, doc)
		m.logs.AssertNumberOfCalls(t, "Insert", 1)
	})

	t.Run("absent document", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)

		doc, err := svc.Get(ctx, "missing", "user-1", access.RoleUser)

		assert.NoError(t, err)
		assert.Nil(t, doc)
		m.logs.AssertNumberOfCalls(t, "Insert", 0)
	})

	t.Run("deleted document behaves as absent", func(t *testing.T) {
		svc, m := newDocService(t)
		deleted := &model.Document{ID: "doc-1", Status: model.StatusDeleted, AccessLevel: model.AccessPublic}
		m.documents.On("FindByID", ctx, "doc-1").Return(deleted, nil)

		doc, err := svc.Get(ctx, "doc-1", "user-1", access.RoleAdmin)

		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("audit failure does not break the read", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("FindByID", ctx, "doc-1").Return(internalDoc, nil)
		m.logs.On("Insert", ctx, mock.Anything).Return(errors.New("audit down"))

		doc, err := svc.Get(ctx, "doc-1", "user-1", access.RoleUser)

		assert.NoError(t, err)
		assert.NotNil(t, doc)
	})
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()
	meta := RequestMeta{IP: "10.0.0.1", UserAgent: "curl/8.0"}

	liveDoc := func(level model.AccessLevel) *model.Document {
		return &model.Document{
			ID: "doc-1", Status: model.StatusGenerated, AccessLevel: level,
			FilePath: "documents/report/20240501/r.pdf",
		}
	}

	tests := []struct {
		name        string
		role        access.Role
		setupMocks  func(m *docSvcMocks)
		wantContent bool
	}{
		{
			name: "happy path",
			role: access.RoleUser,
			setupMocks: func(m *docSvcMocks) {
				m.documents.On("FindByID", ctx, "doc-1").Return(liveDoc(model.AccessInternal), nil)
				m.store.On("Download", ctx, "documents/report/20240501/r.pdf").Return([]byte("%PDF"), nil)
				m.logs.On("Insert", ctx, auditWith(model.ActionDownload, model.AccessSuccess, "")).Return(nil)
			},
			wantContent: true,
		},
		{
			name: "access level denied before any storage read",
			role: access.RoleUser,
			setupMocks: func(m *docSvcMocks) {
				m.documents.On("FindByID", ctx, "doc-1").Return(liveDoc(model.AccessConfidential), nil)
				m.logs.On("Insert", ctx, auditWith(model.ActionDownload, model.AccessDenied, "access level denied")).Return(nil)
			},
		},
		{
			name: "permission denied for guest on public document",
			role: access.RoleGuest,
			setupMocks: func(m *docSvcMocks) {
				m.documents.On("FindByID", ctx, "doc-1").Return(liveDoc(model.AccessPublic), nil)
				m.logs.On("Insert", ctx, auditWith(model.ActionDownload, model.AccessDenied, "no download permission")).Return(nil)
			},
		},
		{
			name: "absent document logs a failed attempt",
			role: access.RoleAdmin,
			setupMocks: func(m *docSvcMocks) {
				m.documents.On("FindByID", ctx, "doc-1").Return(nil, repository.ErrNotFound)
				m.logs.On("Insert", ctx, auditWith(model.ActionDownload, model.AccessFailed, "document not found")).Return(nil)
			},
		},
		{
			name: "storage failure logs the error text",
			role: access.RoleUser,
			setupMocks: func(m *docSvcMocks) {
				m.documents.On("FindByID", ctx, "doc-1").Return(liveDoc(model.AccessInternal), nil)
				m.store.On("Download", ctx, mock.Anything).Return(nil, errors.New("object not found"))
				m.logs.On("Insert", ctx, auditWith(model.ActionDownload, model.AccessFailed, "object not found")).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newDocService(t)
			tt.setupMocks(m)

			content, _, err := svc.Download(ctx, "doc-1", "user-1", tt.role, meta)

			assert.NoError(t, err)
			if tt.wantContent {
				assert.NotNil(t, content)
			} else {
				assert.Nil(t, content)
			}
			m.logs.AssertNumberOfCalls(t, "Insert", 1)
			m.store.AssertExpectations(t)
			m.logs.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path with readonly", func(t *testing.T) {
		svc, m := newDocService(t)
		doc := &model.Document{ID: "doc-1", Status: model.StatusGenerated, FilePath: "documents/a.pdf"}
		m.documents.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.documents.On("Archive", ctx, "doc-1", mock.Anything, true).Return(nil)
		m.store.On("SetReadonly", ctx, "documents/a.pdf", true).Return(true, nil)

		assert.NoError(t, svc.Archive(ctx, "doc-1", true))
		m.documents.AssertExpectations(t)
		m.store.AssertExpectations(t)
	})

	t.Run("deleted documents cannot be archived", func(t *testing.T) {
		svc, m := newDocService(t)
		doc := &model.Document{ID: "doc-1", Status: model.StatusDeleted}
		m.documents.On("FindByID", ctx, "doc-1").Return(doc, nil)

		assert.ErrorIs(t, svc.Archive(ctx, "doc-1", false), ErrDocumentNotFound)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path retains the metadata row", func(t *testing.T) {
		svc, m := newDocService(t)
		doc := &model.Document{ID: "doc-1", Status: model.StatusArchived, FilePath: "documents/a.pdf"}
		m.documents.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Delete", ctx, "documents/a.pdf").Return(true, nil)
		m.documents.On("MarkDeleted", ctx, "doc-1").Return(nil)

		assert.NoError(t, svc.Delete(ctx, "doc-1"))
		m.documents.AssertExpectations(t)
		m.store.AssertExpectations(t)
	})

	t.Run("deleting a deleted document is a no-op", func(t *testing.T) {
		svc, m := newDocService(t)
		doc := &model.Document{ID: "doc-1", Status: model.StatusDeleted}
		m.documents.On("FindByID", ctx, "doc-1").Return(doc, nil)

		assert.NoError(t, svc.Delete(ctx, "doc-1"))
		m.store.AssertNumberOfCalls(t, "Delete", 0)
	})

	t.Run("storage failure keeps the row intact", func(t *testing.T) {
		svc, m := newDocService(t)
		doc := &model.Document{ID: "doc-1", Status: model.StatusGenerated, FilePath: "documents/a.pdf"}
		m.documents.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Delete", ctx, "documents/a.pdf").Return(false, errors.New("storage fail"))

		err := svc.Delete(ctx, "doc-1")
		assert.Error(t, err)
		m.documents.AssertNumberOfCalls(t, "MarkDeleted", 0)
	})
}

func TestDocumentService_Regenerate(t *testing.T) {
	ctx := context.Background()
	pdfBytes := []byte("%PDF-1.7 regenerated")

	parent := &model.Document{
		ID: "doc-1", Title: "acme_invoice", TemplateID: "tmpl-1", TemplateVersion: 2,
		DocType: "report", Status: model.StatusGenerated, AccessLevel: model.AccessInternal,
		Version: 1, CreatedBy: "user-1",
	}

	t.Run("links the new document to its parent", func(t *testing.T) {
		svc, m := newDocService(t)
		m.documents.On("FindByID", ctx, "doc-1").Return(parent, nil)
		m.templates.On("FindVersion", ctx, "tmpl-1", 2).Return(&model.TemplateVersion{
			TemplateID: "tmpl-1", Version: 2, FilePath: "templates/billing/invoice_v2.html",
		}, nil)
		m.templates.On("FindByID", ctx, "tmpl-1").Return(htmlTemplate(), nil)
		m.store.On("Download", ctx, "templates/billing/invoice_v2.html").
			Return([]byte("Hello {{customer}}!"), nil)
		m.layout.On("RenderHTML", ctx, "Hello Globex!").Return(pdfBytes, nil)
		m.store.On("Upload", ctx, mock.MatchedBy(func(path string) bool {
			return strings.HasSuffix(path, "/acme_invoice_v2.pdf")
		}), pdfBytes, mock.Anything).Return(storage.UploadInfo{Hash: "hash-2"}, nil)
		m.documents.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.ParentDocumentID != nil && *doc.ParentDocumentID == "doc-1" && doc.Version == 2
		})).Return(&model.Document{ID: "doc-2", Version: 2}, nil)

		doc, err := svc.Regenerate(ctx, "doc-1", map[string]any{"customer": "Globex"}, "user-2")

		assert.NoError(t, err)
		assert.Equal(t, "doc-2", doc.ID)
		m.documents.AssertExpectations(t)
	})

	t.Run("deleted parent", func(t *testing.T) {
		svc, m := newDocService(t)
		gone := &model.Document{ID: "doc-1", Status: model.StatusDeleted}
		m.documents.On("FindByID", ctx, "doc-1").Return(gone, nil)

		_, err := svc.Regenerate(ctx, "doc-1", nil, "user-2")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}
