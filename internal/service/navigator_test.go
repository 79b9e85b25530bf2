package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lekha/internal/domain"
	"lekha/internal/service"
	"lekha/mocks"
)

func TestNavigator_NextIssue_OnePass(t *testing.T) {
	repo := new(mocks.MockSegmentRepo)
	nav := service.NewNavigator(repo)
	ctx := context.Background()

	a := lineSeg("A", 1, "ok", domain.BBox{})
	b := lineSeg("B", 2, "c", domain.BBox{})
	d := lineSeg("D", 4, "c", domain.BBox{})
	b.HasConflict, d.HasConflict = true, true

	repo.On("GetByID", ctx, "proj", "A").Return(a, nil)
	repo.On("GetByID", ctx, "proj", "B").Return(b, nil)
	repo.On("GetByID", ctx, "proj", "D").Return(d, nil)
	repo.On("NextConflict", ctx, "proj", domain.ViewLine, int64(1)).Return(b, nil)
	repo.On("NextConflict", ctx, "proj", domain.ViewLine, int64(2)).Return(d, nil)
	repo.On("NextConflict", ctx, "proj", domain.ViewLine, int64(4)).Return(nil, nil)

	got, err := nav.NextIssue(ctx, "proj", domain.ViewLine, "A")
	require.NoError(t, err)
	assert.Equal(t, "B", got.SegmentID)

	got, err = nav.NextIssue(ctx, "proj", domain.ViewLine, "B")
	require.NoError(t, err)
	assert.Equal(t, "D", got.SegmentID)

	got, err = nav.NextIssue(ctx, "proj", domain.ViewLine, "D")
	require.NoError(t, err)
	assert.Nil(t, got)

	repo.AssertExpectations(t)
}

func TestNavigator_NextAndPrev(t *testing.T) {
	repo := new(mocks.MockSegmentRepo)
	nav := service.NewNavigator(repo)
	ctx := context.Background()

	a := lineSeg("A", 1, "", domain.BBox{})
	b := lineSeg("B", 2, "", domain.BBox{})
	repo.On("GetByID", ctx, "proj", "A").Return(a, nil)
	repo.On("Neighbor", ctx, "proj", domain.ViewLine, int64(1), domain.DirectionNext).Return(b, nil)
	repo.On("Neighbor", ctx, "proj", domain.ViewLine, int64(1), domain.DirectionPrev).Return(nil, nil)

	next, err := nav.Next(ctx, "proj", domain.ViewLine, "A")
	require.NoError(t, err)
	assert.Equal(t, "B", next.SegmentID)

	prev, err := nav.Prev(ctx, "proj", domain.ViewLine, "A")
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestNavigator_Summary(t *testing.T) {
	repo := new(mocks.MockSegmentRepo)
	nav := service.NewNavigator(repo)
	ctx := context.Background()

	a := lineSeg("A", 1, "", domain.BBox{})
	repo.On("GetByID", ctx, "proj", "A").Return(a, nil)
	repo.On("Navigation", ctx, "proj", domain.ViewLine, int64(1)).
		Return(&domain.Navigation{CanNext: true, HasNextIssue: true}, nil)

	got, err := nav.Summary(ctx, "proj", domain.ViewLine, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.Navigation{CanNext: true, HasNextIssue: true}, got)
}

func TestNavigator_ViewMismatch(t *testing.T) {
	repo := new(mocks.MockSegmentRepo)
	nav := service.NewNavigator(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "proj", "A").Return(lineSeg("A", 1, "", domain.BBox{}), nil)

	_, err := nav.Next(ctx, "proj", domain.ViewWord, "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "Neighbor")
}

func TestNavigator_UnknownSegment(t *testing.T) {
	repo := new(mocks.MockSegmentRepo)
	nav := service.NewNavigator(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "proj", "missing").Return(nil, domain.ErrSegmentNotFound)

	_, err := nav.NextIssue(ctx, "proj", domain.ViewLine, "missing")
	assert.ErrorIs(t, err, domain.ErrSegmentNotFound)
}
