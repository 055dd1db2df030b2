package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docforge/internal/model"
	"docforge/internal/repository"
)

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, tmpl *model.Template, version *model.TemplateVersion) (*model.Template, error) {
	args := m.Called(ctx, tmpl, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) List(ctx context.Context, f repository.TemplateFilter, pq repository.PageQuery) (*repository.PageResult[model.Template], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Template]), args.Error(1)
}

func (m *MockTemplateRepository) FindVersion(ctx context.Context, templateID string, version int) (*model.TemplateVersion, error) {
	args := m.Called(ctx, templateID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemplateVersion), args.Error(1)
}

func (m *MockTemplateRepository) AddVersion(ctx context.Context, version *model.TemplateVersion, expectedCurrent int) error {
	args := m.Called(ctx, version, expectedCurrent)
	return args.Error(0)
}

func (m *MockTemplateRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
