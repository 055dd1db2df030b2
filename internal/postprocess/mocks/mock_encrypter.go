package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEncrypter struct {
	mock.Mock
}

func (m *MockEncrypter) Encrypt(ctx context.Context, content []byte) ([]byte, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEncrypter) KeyID() string {
	args := m.Called()
	return args.String(0)
}
