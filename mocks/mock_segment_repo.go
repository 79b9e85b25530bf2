package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lekha/internal/domain"
	"lekha/internal/port"
)

// MockSegmentRepo is a mock implementation of port.SegmentRepository.
type MockSegmentRepo struct {
	mock.Mock
}

func (m *MockSegmentRepo) ReplacePage(ctx context.Context, content *port.PageContent) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *MockSegmentRepo) GetByID(ctx context.Context, projectID, segmentID string) (*domain.Segment, error) {
	args := m.Called(ctx, projectID, segmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) First(ctx context.Context, projectID string, view domain.View) (*domain.Segment, error) {
	args := m.Called(ctx, projectID, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) Neighbor(ctx context.Context, projectID string, view domain.View, orderIndex int64, dir domain.Direction) (*domain.Segment, error) {
	args := m.Called(ctx, projectID, view, orderIndex, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) NextConflict(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Segment, error) {
	args := m.Called(ctx, projectID, view, orderIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) Navigation(ctx context.Context, projectID string, view domain.View, orderIndex int64) (*domain.Navigation, error) {
	args := m.Called(ctx, projectID, view, orderIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Navigation), args.Error(1)
}

func (m *MockSegmentRepo) ListByView(ctx context.Context, projectID string, view domain.View) ([]domain.Segment, error) {
	args := m.Called(ctx, projectID, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) ListByPage(ctx context.Context, projectID, pageRef string, view domain.View) ([]domain.Segment, error) {
	args := m.Called(ctx, projectID, pageRef, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) LineForWord(ctx context.Context, projectID, wordSegmentID string) (*domain.Segment, error) {
	args := m.Called(ctx, projectID, wordSegmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) WordsForLine(ctx context.Context, projectID, lineSegmentID string) ([]domain.Segment, error) {
	args := m.Called(ctx, projectID, lineSegmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Segment), args.Error(1)
}

func (m *MockSegmentRepo) SaveTexts(ctx context.Context, projectID string, updates []domain.TextUpdate) error {
	args := m.Called(ctx, projectID, updates)
	return args.Error(0)
}
