package mocks

import (
	"context"

	"docforge/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Upload(ctx context.Context, path string, content []byte, metadata map[string]string) (storage.UploadInfo, error) {
	args := m.Called(ctx, path, content, metadata)
	if f, ok := args.Get(0).(func(context.Context, string, []byte, map[string]string) storage.UploadInfo); ok {
		return f(ctx, path, content, metadata), args.Error(1)
	}
	return args.Get(0).(storage.UploadInfo), args.Error(1)
}

func (m *MockBackend) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) List(ctx context.Context, prefix string, tags map[string]string) ([]storage.FileInfo, error) {
	args := m.Called(ctx, prefix, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.FileInfo), args.Error(1)
}

func (m *MockBackend) SetReadonly(ctx context.Context, path string, readonly bool) (bool, error) {
	args := m.Called(ctx, path, readonly)
	return args.Bool(0), args.Error(1)
}
