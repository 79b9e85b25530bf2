package service

import (
	"context"
	"fmt"

	"lekha/internal/domain"
	"lekha/internal/port"
)

// Navigator moves through the segments of one view in order index order.
// Moves are one step, clamped at both ends, and never wrap around.
type Navigator interface {
	Next(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error)
	Prev(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error)
	// NextIssue returns the first conflicting segment after segmentID, or nil.
	NextIssue(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error)
	Summary(ctx context.Context, projectID string, view domain.View, segmentID string) (domain.Navigation, error)
}

type navigator struct {
	segmentRepo port.SegmentRepository
}

// NewNavigator creates a new Navigator implementation.
func NewNavigator(segmentRepo port.SegmentRepository) Navigator {
	return &navigator{segmentRepo: segmentRepo}
}

// current loads segmentID and checks that it belongs to view.
func (n *navigator) current(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error) {
	seg, err := n.segmentRepo.GetByID(ctx, projectID, segmentID)
	if err != nil {
		return nil, err
	}
	if seg.View != view {
		return nil, domain.ErrSegmentNotFound
	}
	return seg, nil
}

func (n *navigator) Next(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error) {
	return n.step(ctx, projectID, view, segmentID, domain.DirectionNext)
}

func (n *navigator) Prev(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error) {
	return n.step(ctx, projectID, view, segmentID, domain.DirectionPrev)
}

func (n *navigator) step(ctx context.Context, projectID string, view domain.View, segmentID string, dir domain.Direction) (*domain.Segment, error) {
	seg, err := n.current(ctx, projectID, view, segmentID)
	if err != nil {
		return nil, err
	}
	next, err := n.segmentRepo.Neighbor(ctx, projectID, view, seg.OrderIndex, dir)
	if err != nil {
		return nil, fmt.Errorf("navigating from %s: %w", segmentID, err)
	}
	return next, nil
}

func (n *navigator) NextIssue(ctx context.Context, projectID string, view domain.View, segmentID string) (*domain.Segment, error) {
	seg, err := n.current(ctx, projectID, view, segmentID)
	if err != nil {
		return nil, err
	}
	next, err := n.segmentRepo.NextConflict(ctx, projectID, view, seg.OrderIndex)
	if err != nil {
		return nil, fmt.Errorf("searching conflicts after %s: %w", segmentID, err)
	}
	return next, nil
}

func (n *navigator) Summary(ctx context.Context, projectID string, view domain.View, segmentID string) (domain.Navigation, error) {
	seg, err := n.current(ctx, projectID, view, segmentID)
	if err != nil {
		return domain.Navigation{}, err
	}
	nav, err := n.segmentRepo.Navigation(ctx, projectID, view, seg.OrderIndex)
	if err != nil {
		return domain.Navigation{}, fmt.Errorf("navigation summary for %s: %w", segmentID, err)
	}
	return *nav, nil
}
