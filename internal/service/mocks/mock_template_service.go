package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docforge/internal/model"
	"docforge/internal/service"
)

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, in service.CreateTemplateInput) (*model.Template, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) UpdateContent(ctx context.Context, in service.UpdateTemplateInput) (*model.Template, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, category string, activeOnly bool, limit, offset int) (*service.TemplateListResult, error) {
	args := m.Called(ctx, category, activeOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TemplateListResult), args.Error(1)
}

func (m *MockTemplateService) VersionContent(ctx context.Context, templateID string, version int) ([]byte, *model.TemplateVersion, error) {
	args := m.Called(ctx, templateID, version)
	var content []byte
	if args.Get(0) != nil {
		content = args.Get(0).([]byte)
	}
	var v *model.TemplateVersion
	if args.Get(1) != nil {
		v = args.Get(1).(*model.TemplateVersion)
	}
	return content, v, args.Error(2)
}

func (m *MockTemplateService) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
