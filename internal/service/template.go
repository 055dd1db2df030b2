package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docforge/internal/logger"
	"docforge/internal/model"
	"docforge/internal/repository"
	"docforge/internal/storage"
)

// casRetries bounds how often an update retries after losing the
// current-version compare-and-swap to a concurrent writer.
const casRetries = 3

// CreateTemplateInput carries everything needed to register a template.
type CreateTemplateInput struct {
	Name         string
	Category     string
	Description  string
	FileType     model.FileType
	Content      []byte
	Placeholders []model.Placeholder
	Metadata     map[string]any
	CreatedBy    string
}

// UpdateTemplateInput carries a new content revision for an existing template.
type UpdateTemplateInput struct {
	TemplateID    string
	Content       []byte
	ChangeSummary string
	UpdatedBy     string
}

// TemplateListResult is the service-level DTO for paginated templates.
type TemplateListResult struct {
	Items []model.Template `json:"data"`
	Total int              `json:"total"`
}

// TemplateService defines the use cases for managing templates and their
// version history.
type TemplateService interface {
	// Create stores the template content and registers it at version 1.
	// Storage is rolled back if the metadata insert fails.
	Create(ctx context.Context, in CreateTemplateInput) (*model.Template, error)

	// UpdateContent stores a new revision and bumps the template head.
	// Earlier versions stay retrievable.
	UpdateContent(ctx context.Context, in UpdateTemplateInput) (*model.Template, error)

	// Get returns a single template by its ID.
	Get(ctx context.Context, id string) (*model.Template, error)

	// List returns templates filtered by category and active flag.
	List(ctx context.Context, category string, activeOnly bool, limit, offset int) (*TemplateListResult, error)

	// VersionContent returns the stored bytes and version row of one
	// archived revision.
	VersionContent(ctx context.Context, templateID string, version int) ([]byte, *model.TemplateVersion, error)

	// Deactivate retires the template from generation. Stored content and
	// version history are retained.
	Deactivate(ctx context.Context, id string) error
}

type templateService struct {
	store storage.Backend
	repo  repository.TemplateRepository
	log   *logger.Logger
}

// NewTemplateService constructs a new TemplateService.
func NewTemplateService(store storage.Backend, repo repository.TemplateRepository, log *logger.Logger) TemplateService {
	return &templateService{store: store, repo: repo, log: log}
}

func (s *templateService) Create(ctx context.Context, in CreateTemplateInput) (*model.Template, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if len(in.Content) == 0 {
		return nil, ErrContentRequired
	}
	if !in.FileType.IsValid() {
		return nil, fmt.Errorf("unsupported template file type %q", in.FileType)
	}
	category := in.Category
	if category == "" {
		category = "general"
	}

	now := time.Now().UTC()
	path := fmt.Sprintf("templates/%s/%s_%s.%s", category, in.Name, now.Format("20060102150405"), in.FileType)

	info, err := s.store.Upload(ctx, path, in.Content, map[string]string{
		"template-name": in.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	tmpl := &model.Template{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Category:       category,
		Description:    in.Description,
		CurrentVersion: 1,
		FilePath:       path,
		Placeholders:   in.Placeholders,
		Metadata:       in.Metadata,
		FileType:       in.FileType,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      in.CreatedBy,
	}
	version := &model.TemplateVersion{
		ID:          uuid.New().String(),
		TemplateID:  tmpl.ID,
		Version:     1,
		FilePath:    path,
		FileHash:    info.Hash,
		Description: in.Description,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
	}

	stored, err := s.repo.Create(ctx, tmpl, version)
	if err != nil {
		// Rollback: delete the object from storage
		if _, delErr := s.store.Delete(ctx, path); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("template created", "template_id", stored.ID, "name", stored.Name, "file_type", stored.FileType)
	return stored, nil
}

func (s *templateService) UpdateContent(ctx context.Context, in UpdateTemplateInput) (*model.Template, error) {
	if in.TemplateID == "" {
		return nil, ErrIDRequired
	}
	if len(in.Content) == 0 {
		return nil, ErrContentRequired
	}

	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		tmpl, err := s.repo.FindByID(ctx, in.TemplateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}

		now := time.Now().UTC()
		next := tmpl.CurrentVersion + 1
		path := fmt.Sprintf("templates/%s/%s_v%d_%s.%s",
			tmpl.Category, tmpl.Name, next, now.Format("20060102150405"), tmpl.FileType)

		info, err := s.store.Upload(ctx, path, in.Content, map[string]string{
			"template-name": tmpl.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}

		version := &model.TemplateVersion{
			ID:            uuid.New().String(),
			TemplateID:    tmpl.ID,
			Version:       next,
			FilePath:      path,
			FileHash:      info.Hash,
			ChangeSummary: in.ChangeSummary,
			CreatedAt:     now,
			CreatedBy:     in.UpdatedBy,
		}

		err = s.repo.AddVersion(ctx, version, tmpl.CurrentVersion)
		if err == nil {
			tmpl.CurrentVersion = next
			tmpl.FilePath = path
			tmpl.UpdatedAt = now
			s.log.Info("template updated", "template_id", tmpl.ID, "version", next)
			return tmpl, nil
		}

		// Orphaned object cleanup before retrying or giving up.
		if _, delErr := s.store.Delete(ctx, path); delErr != nil {
			s.log.Warn("rollback delete failed", "path", path, "error", delErr)
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("db save failed: %w", err)
		}
		lastErr = err
		s.log.Warn("template version conflict, retrying", "template_id", in.TemplateID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("update template after %d attempts: %w", casRetries, lastErr)
}

func (s *templateService) Get(ctx context.Context, id string) (*model.Template, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

func (s *templateService) List(ctx context.Context, category string, activeOnly bool, limit, offset int) (*TemplateListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx,
		repository.TemplateFilter{Category: category, ActiveOnly: activeOnly},
		repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &TemplateListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *templateService) VersionContent(ctx context.Context, templateID string, version int) ([]byte, *model.TemplateVersion, error) {
	if templateID == "" {
		return nil, nil, ErrIDRequired
	}
	v, err := s.repo.FindVersion(ctx, templateID, version)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTemplateNotFound
		}
		return nil, nil, err
	}
	content, err := s.store.Download(ctx, v.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("download version content: %w", err)
	}
	return content, v, nil
}

func (s *templateService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	s.log.Info("template deactivated", "template_id", id)
	return nil
}
