package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
)

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
	EngineName string
}

func (m *MockOCREngine) Name() string {
	return m.EngineName
}

func (m *MockOCREngine) Recognize(ctx context.Context, page domain.PageImage) ([]domain.WordBox, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WordBox), args.Error(1)
}
