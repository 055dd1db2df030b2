package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockFixedLayoutRenderer struct {
	mock.Mock
}

func (m *MockFixedLayoutRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
