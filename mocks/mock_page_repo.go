package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
)

// MockPageRepo is a mock implementation of port.PageRepository.
type MockPageRepo struct {
	mock.Mock
}

func (m *MockPageRepo) Upsert(ctx context.Context, page *domain.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}

func (m *MockPageRepo) GetByRef(ctx context.Context, projectID, pageRef string) (*domain.Page, error) {
	args := m.Called(ctx, projectID, pageRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func (m *MockPageRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Page, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}
