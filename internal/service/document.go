package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docforge/internal/access"
	"docforge/internal/logger"
	"docforge/internal/model"
	"docforge/internal/postprocess"
	"docforge/internal/render"
	"docforge/internal/repository"
	"docforge/internal/storage"
)

// GenerateInput carries everything needed to generate one document.
type GenerateInput struct {
	TemplateID    string
	Data          map[string]any
	CreatedBy     string
	DocType       string
	Title         string
	AccessLevel   model.AccessLevel
	Encrypt       bool
	Watermark     string
	Tags          []string
	RetentionDays *int
}

// RequestMeta is the caller context recorded on audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// AccessHistoryResult is the service-level DTO for a document's audit trail.
type AccessHistoryResult struct {
	Items []model.DocumentAccessLog `json:"data"`
	Total int                       `json:"total"`
}

// DocumentService defines the use cases for generating and retrieving
// documents. Retrieval operations take the caller's identity: both access
// gates run before any content leaves the service, and every attempt is
// recorded in the audit trail.
type DocumentService interface {
	// Generate renders a document from a template, runs post-processing
	// and stores content before metadata. No metadata row exists for a
	// failed generation.
	Generate(ctx context.Context, in GenerateInput) (*model.Document, error)

	// Regenerate renders a new document from an existing one's template
	// version with fresh data. The result links back through
	// ParentDocumentID and carries the next document version number.
	Regenerate(ctx context.Context, documentID string, data map[string]any, updatedBy string) (*model.Document, error)

	// Get returns document metadata. Absent, deleted and access-denied
	// documents are indistinguishable: all return nil without error.
	Get(ctx context.Context, id, userID string, role access.Role) (*model.Document, error)

	// Download returns the document content after both access gates pass.
	// Denied and absent documents return nil bytes without error.
	Download(ctx context.Context, id, userID string, role access.Role, meta RequestMeta) ([]byte, *model.Document, error)

	// List returns documents matching the filter. No access filtering is
	// applied; listings expose metadata only, never content.
	List(ctx context.Context, f repository.DocumentFilter, limit, offset int) (*DocumentListResult, error)

	// Archive freezes a document, optionally write-protecting its content.
	Archive(ctx context.Context, id string, readonly bool) error

	// Delete removes the stored content and marks the metadata row
	// deleted. Deleting an already-deleted document is a no-op.
	Delete(ctx context.Context, id string) error

	// Search matches documents by metadata and title, deriving a creation
	// date range from month phrases in the query when no explicit range
	// is given.
	Search(ctx context.Context, in SearchInput) ([]model.Document, error)

	// AccessHistory returns the audit trail for a document.
	AccessHistory(ctx context.Context, documentID string, limit, offset int) (*AccessHistoryResult, error)
}

type documentService struct {
	store     storage.Backend
	templates repository.TemplateRepository
	documents repository.DocumentRepository
	logs      repository.AccessLogRepository
	engines   *render.Engines
	chain     *postprocess.Chain
	acl       *access.Engine
	log       *logger.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Backend,
	templates repository.TemplateRepository,
	documents repository.DocumentRepository,
	logs repository.AccessLogRepository,
	engines *render.Engines,
	chain *postprocess.Chain,
	acl *access.Engine,
	log *logger.Logger,
) DocumentService {
	return &documentService{
		store:     store,
		templates: templates,
		documents: documents,
		logs:      logs,
		engines:   engines,
		chain:     chain,
		acl:       acl,
		log:       log,
	}
}

func (s *documentService) Generate(ctx context.Context, in GenerateInput) (*model.Document, error) {
	if in.TemplateID == "" {
		return nil, ErrIDRequired
	}

	tmpl, err := s.templates.FindByID(ctx, in.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, ErrTemplateNotFound
	}

	level := in.AccessLevel
	if level == "" {
		level = model.AccessInternal
	}
	if !level.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccessLevel, in.AccessLevel)
	}

	for _, p := range tmpl.Placeholders {
		if !p.Required {
			continue
		}
		if _, ok := in.Data[p.Name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPlaceholder, p.Name)
		}
	}

	engine, err := s.engines.ForType(tmpl.FileType)
	if err != nil {
		return nil, err
	}

	templateContent, err := s.store.Download(ctx, tmpl.FilePath)
	if err != nil {
		return nil, fmt.Errorf("download template content: %w", err)
	}

	rendered, err := engine.Render(ctx, templateContent, in.Data)
	if err != nil {
		return nil, fmt.Errorf("render template %s: %w", tmpl.ID, err)
	}
	finalType := engine.OutputType()

	result, err := s.chain.Apply(ctx, rendered, finalType, postprocess.Options{
		Watermark: in.Watermark,
		Encrypt:   in.Encrypt,
	})
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	now := time.Now().UTC()
	title := in.Title
	if title == "" {
		title = fmt.Sprintf("%s_%s", tmpl.Name, now.Format("20060102150405"))
	}
	docType := in.DocType
	if docType == "" {
		docType = "general"
	}

	doc := &model.Document{
		ID:              uuid.New().String(),
		Title:           title,
		TemplateID:      tmpl.ID,
		TemplateVersion: tmpl.CurrentVersion,
		DocType:         docType,
		Status:          model.StatusGenerated,
		AccessLevel:     level,
		MimeType:        finalType.MimeType(),
		Metadata:        map[string]any{},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       in.CreatedBy,
		IsEncrypted:     result.Encrypted,
		RetentionDays:   in.RetentionDays,
	}
	if result.Encrypted {
		keyID := result.EncryptionKeyID
		doc.EncryptionKeyID = &keyID
	}
	if len(in.Tags) > 0 {
		doc.Metadata[model.MetaKeyTags] = in.Tags
	}
	if in.Watermark != "" {
		doc.Metadata[model.MetaKeyWatermark] = in.Watermark
	}
	if result.Degraded {
		doc.Metadata[model.MetaKeyDegraded] = true
	}
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal input data: %w", err)
		}
		doc.InputData = string(raw)
	}

	path := fmt.Sprintf("documents/%s/%s/%s.%s", docType, now.Format("20060102"), title, finalType)
	return s.persist(ctx, doc, path, result.Content)
}

func (s *documentService) Regenerate(ctx context.Context, documentID string, data map[string]any, updatedBy string) (*model.Document, error) {
	parent, err := s.findLive(ctx, documentID)
	if err != nil {
		return nil, err
	}

	version, err := s.templates.FindVersion(ctx, parent.TemplateID, parent.TemplateVersion)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	tmpl, err := s.templates.FindByID(ctx, parent.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	engine, err := s.engines.ForType(tmpl.FileType)
	if err != nil {
		return nil, err
	}
	templateContent, err := s.store.Download(ctx, version.FilePath)
	if err != nil {
		return nil, fmt.Errorf("download template content: %w", err)
	}
	rendered, err := engine.Render(ctx, templateContent, data)
	if err != nil {
		return nil, fmt.Errorf("render template %s: %w", tmpl.ID, err)
	}
	finalType := engine.OutputType()

	watermark, _ := parent.Metadata[model.MetaKeyWatermark].(string)
	result, err := s.chain.Apply(ctx, rendered, finalType, postprocess.Options{
		Watermark: watermark,
		Encrypt:   parent.IsEncrypted,
	})
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:               uuid.New().String(),
		Title:            parent.Title,
		TemplateID:       parent.TemplateID,
		TemplateVersion:  parent.TemplateVersion,
		DocType:          parent.DocType,
		Status:           model.StatusGenerated,
		AccessLevel:      parent.AccessLevel,
		MimeType:         finalType.MimeType(),
		Metadata:         map[string]any{},
		Version:          parent.Version + 1,
		ParentDocumentID: &parent.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
		CreatedBy:        parent.CreatedBy,
		UpdatedBy:        &updatedBy,
		IsEncrypted:      result.Encrypted,
		RetentionDays:    parent.RetentionDays,
	}
	if result.Encrypted {
		keyID := result.EncryptionKeyID
		doc.EncryptionKeyID = &keyID
	}
	for k, v := range parent.Metadata {
		if k == model.MetaKeyDegraded {
			continue
		}
		doc.Metadata[k] = v
	}
	if result.Degraded {
		doc.Metadata[model.MetaKeyDegraded] = true
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal input data: %w", err)
		}
		doc.InputData = string(raw)
	}

	path := fmt.Sprintf("documents/%s/%s/%s_v%d.%s",
		parent.DocType, now.Format("20060102"), parent.Title, doc.Version, finalType)
	return s.persist(ctx, doc, path, result.Content)
}

// persist writes content before metadata and rolls storage back when the
// metadata insert fails, so no row ever points at missing content.
func (s *documentService) persist(ctx context.Context, doc *model.Document, path string, content []byte) (*model.Document, error) {
	info, err := s.store.Upload(ctx, path, content, map[string]string{
		"document-title": doc.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	doc.FilePath = path
	doc.FileHash = info.Hash
	doc.FileSize = info.Size

	stored, err := s.documents.Create(ctx, doc)
	if err != nil {
		if _, delErr := s.store.Delete(ctx, path); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("document generated",
		"document_id", stored.ID, "template_id", stored.TemplateID,
		"doc_type", stored.DocType, "size", stored.FileSize)
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id, userID string, role access.Role) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if doc.Status == model.StatusDeleted {
		return nil, nil
	}

	if !s.acl.CanAccessDocument(role, doc.AccessLevel) {
		s.audit(ctx, id, userID, model.ActionView, model.AccessDenied, "access level denied", RequestMeta{})
		return nil, nil
	}

	s.audit(ctx, id, userID, model.ActionView, model.AccessSuccess, "", RequestMeta{})
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, id, userID string, role access.Role, meta RequestMeta) ([]byte, *model.Document, error) {
	if id == "" {
		return nil, nil, ErrIDRequired
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.audit(ctx, id, userID, model.ActionDownload, model.AccessFailed, "document not found", meta)
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if doc.Status == model.StatusDeleted {
		s.audit(ctx, id, userID, model.ActionDownload, model.AccessFailed, "document not found", meta)
		return nil, nil, nil
	}

	// Both gates run before any storage read.
	if !s.acl.CanAccessDocument(role, doc.AccessLevel) {
		s.audit(ctx, id, userID, model.ActionDownload, model.AccessDenied, "access level denied", meta)
		return nil, nil, nil
	}
	if !s.acl.CheckPermission(role, model.ActionDownload) {
		s.audit(ctx, id, userID, model.ActionDownload, model.AccessDenied, "no download permission", meta)
		return nil, nil, nil
	}

	content, err := s.store.Download(ctx, doc.FilePath)
	if err != nil {
		s.audit(ctx, id, userID, model.ActionDownload, model.AccessFailed, err.Error(), meta)
		return nil, nil, nil
	}

	s.audit(ctx, id, userID, model.ActionDownload, model.AccessSuccess, "", meta)
	return content, doc, nil
}

func (s *documentService) List(ctx context.Context, f repository.DocumentFilter, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.documents.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Archive(ctx context.Context, id string, readonly bool) error {
	doc, err := s.findLive(ctx, id)
	if err != nil {
		return err
	}

	if err := s.documents.Archive(ctx, id, time.Now().UTC(), readonly); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if readonly {
		if _, err := s.store.SetReadonly(ctx, doc.FilePath, true); err != nil {
			s.log.Warn("set readonly failed", "document_id", id, "error", err)
		}
	}
	s.log.Info("document archived", "document_id", id, "readonly", readonly)
	return nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if doc.Status == model.StatusDeleted {
		return nil
	}

	// Content goes first; the metadata row is retained in deleted status.
	if _, err := s.store.Delete(ctx, doc.FilePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.documents.MarkDeleted(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	s.log.Info("document deleted", "document_id", id)
	return nil
}

func (s *documentService) AccessHistory(ctx context.Context, documentID string, limit, offset int) (*AccessHistoryResult, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.logs.ListByDocument(ctx, documentID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AccessHistoryResult{Items: res.Items, Total: res.Total}, nil
}

// findLive returns the document unless it is absent or deleted.
func (s *documentService) findLive(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.Status == model.StatusDeleted {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// audit appends one trail row. Failures are logged, never propagated; a
// broken audit store must not turn reads into errors.
func (s *documentService) audit(ctx context.Context, documentID, userID string, action model.AccessAction, status model.AccessStatus, reason string, meta RequestMeta) {
	entry := &model.DocumentAccessLog{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
		Status:     status,
		Reason:     reason,
		AccessedAt: time.Now().UTC(),
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.log.Warn("audit insert failed",
			"document_id", documentID, "action", action, "status", status, "error", err)
	}
}
