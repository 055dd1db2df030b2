package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docforge/internal/access"
	"docforge/internal/model"
	"docforge/internal/repository"
	"docforge/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Generate(ctx context.Context, in service.GenerateInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Regenerate(ctx context.Context, documentID string, data map[string]any, updatedBy string) (*model.Document, error) {
	args := m.Called(ctx, documentID, data, updatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id, userID string, role access.Role) (*model.Document, error) {
	args := m.Called(ctx, id, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id, userID string, role access.Role, meta service.RequestMeta) ([]byte, *model.Document, error) {
	args := m.Called(ctx, id, userID, role, meta)
	var content []byte
	if args.Get(0) != nil {
		content = args.Get(0).([]byte)
	}
	var doc *model.Document
	if args.Get(1) != nil {
		doc = args.Get(1).(*model.Document)
	}
	return content, doc, args.Error(2)
}

func (m *MockDocumentService) List(ctx context.Context, f repository.DocumentFilter, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Archive(ctx context.Context, id string, readonly bool) error {
	args := m.Called(ctx, id, readonly)
	return args.Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) Search(ctx context.Context, in service.SearchInput) ([]model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) AccessHistory(ctx context.Context, documentID string, limit, offset int) (*service.AccessHistoryResult, error) {
	args := m.Called(ctx, documentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessHistoryResult), args.Error(1)
}
