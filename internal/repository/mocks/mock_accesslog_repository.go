package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docforge/internal/model"
	"docforge/internal/repository"
)

type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) Insert(ctx context.Context, entry *model.DocumentAccessLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAccessLogRepository) ListByDocument(ctx context.Context, documentID string, pq repository.PageQuery) (*repository.PageResult[model.DocumentAccessLog], error) {
	args := m.Called(ctx, documentID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DocumentAccessLog]), args.Error(1)
}
