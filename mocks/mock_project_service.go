package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
	"lekha/internal/service"
)

// MockProjectService is a mock implementation of service.ProjectService.
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) List(ctx context.Context) ([]service.ProjectSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ProjectSummary), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Pages(ctx context.Context, projectID string) ([]service.PageSummary, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PageSummary), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *MockProjectService) DeleteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Export writes the string returned by the first argument to w.
func (m *MockProjectService) Export(ctx context.Context, projectID string, format domain.ExportFormat, w io.Writer) error {
	args := m.Called(ctx, projectID, format, w)
	if body, ok := args.Get(0).(string); ok {
		if _, err := io.WriteString(w, body); err != nil {
			return err
		}
	}
	return args.Error(1)
}
