package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
	"lekha/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) State(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) ActiveProject(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) Resume(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionService) SwitchProject(ctx context.Context, projectID string) (*service.ProjectState, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProjectState), args.Error(1)
}

func (m *MockSessionService) SwitchView(ctx context.Context, view domain.View, segmentID string) (*service.SegmentPayload, error) {
	args := m.Called(ctx, view, segmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SegmentPayload), args.Error(1)
}

func (m *MockSessionService) Open(ctx context.Context, segmentID string, view domain.View) (*service.SegmentPayload, error) {
	args := m.Called(ctx, segmentID, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SegmentPayload), args.Error(1)
}

func (m *MockSessionService) Save(ctx context.Context, input service.SaveInput) (*service.SegmentPayload, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SegmentPayload), args.Error(1)
}

func (m *MockSessionService) Image(ctx context.Context, segmentID string, view domain.View) ([]byte, error) {
	args := m.Called(ctx, segmentID, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
