package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
)

// MockEngineRunRepo is a mock implementation of port.EngineRunRepository.
type MockEngineRunRepo struct {
	mock.Mock
}

func (m *MockEngineRunRepo) ListByPage(ctx context.Context, projectID, pageRef string) ([]domain.EngineRun, error) {
	args := m.Called(ctx, projectID, pageRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EngineRun), args.Error(1)
}
