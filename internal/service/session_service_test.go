package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/service"
	"lekha/mocks"
)

type sessionFixture struct {
	projects *mocks.MockProjectRepo
	segments *mocks.MockSegmentRepo
	svc      service.SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		projects: new(mocks.MockProjectRepo),
		segments: new(mocks.MockSegmentRepo),
	}
	segSvc := service.NewSegmentService(
		f.segments,
		new(mocks.MockPageRepo),
		new(mocks.MockObjectStorage),
		service.NewNavigator(f.segments),
		&config.S3Config{Bucket: "pages"},
		discardLogger(),
	)
	f.svc = service.NewSessionService(f.projects, f.segments, segSvc, discardLogger())
	return f
}

func TestSessionService_NoProject(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.projects.On("MostRecent", ctx).Return(nil, domain.ErrProjectNotFound)

	_, err := f.svc.State(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.Save(ctx, service.SaveInput{SegmentID: "x", View: domain.ViewLine})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.ActiveProject(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSessionService_SwitchProject_FirstSegmentOfLastView(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	first := wordSeg("p0000_l0000_w0000", 1, "Hello", true, word0Box)

	f.projects.On("GetByID", ctx, "book").Return(&domain.Project{ProjectID: "book", LastView: domain.ViewWord}, nil)
	f.segments.On("First", ctx, "book", domain.ViewWord).Return(first, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewWord, first.SegmentID).Return(nil)
	f.segments.On("Navigation", ctx, "book", domain.ViewWord, int64(1)).Return(&domain.Navigation{CanNext: true}, nil)

	state, err := f.svc.SwitchProject(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, "book", state.ProjectID)
	assert.Equal(t, domain.ViewWord, state.View)
	assert.Equal(t, first.SegmentID, state.SegmentID)
	require.NotNil(t, state.Segment)
	assert.Equal(t, "Hello", state.Segment.Text)

	active, err := f.svc.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "book", active)
	f.projects.AssertExpectations(t)
}

func TestSessionService_SwitchProject_StartsAtFirstSegment(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	first := lineSeg("p0000_l0000", 1<<20, "first", lineBox)

	f.projects.On("GetByID", ctx, "book").Return(&domain.Project{ProjectID: "book", LastView: domain.ViewLine, LastSegmentID: "p0002_l0004"}, nil)
	f.segments.On("First", ctx, "book", domain.ViewLine).Return(first, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewLine, first.SegmentID).Return(nil)
	f.segments.On("Navigation", ctx, "book", domain.ViewLine, first.OrderIndex).Return(&domain.Navigation{CanNext: true}, nil)

	state, err := f.svc.SwitchProject(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, first.SegmentID, state.SegmentID)
	f.segments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Resume_ReturnsToLastSegment(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	last := lineSeg("p0002_l0004", 7, "resumed", lineBox)

	f.projects.On("MostRecent", ctx).Return(&domain.Project{ProjectID: "book", LastView: domain.ViewLine, LastSegmentID: last.SegmentID}, nil)
	f.segments.On("GetByID", ctx, "book", last.SegmentID).Return(last, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewLine, last.SegmentID).Return(nil)

	require.NoError(t, f.svc.Resume(ctx))
	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, last.SegmentID, state.SegmentID)
	f.segments.AssertNotCalled(t, "First", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_SwitchProject_EmptyProject(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	f.projects.On("GetByID", ctx, "empty").Return(&domain.Project{ProjectID: "empty"}, nil)
	f.segments.On("First", ctx, "empty", domain.ViewLine).Return(nil, nil)
	f.projects.On("UpdateState", ctx, "empty", domain.ViewLine, "").Return(nil)

	state, err := f.svc.SwitchProject(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.ViewLine, state.View)
	assert.Empty(t, state.SegmentID)
	assert.Nil(t, state.Segment)
}

func TestSessionService_SwitchProject_NotFound(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.projects.On("GetByID", ctx, "nope").Return(nil, domain.ErrProjectNotFound)

	_, err := f.svc.SwitchProject(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_SwitchView_RoundTrip(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	line := lineSeg("p0000_l0000", 0, "Hello world", lineBox)
	w0 := wordSeg("p0000_l0000_w0000", 1, "Hello", false, word0Box)

	f.projects.On("MostRecent", ctx).Return(&domain.Project{ProjectID: "book", LastView: domain.ViewLine, LastSegmentID: line.SegmentID}, nil)
	f.segments.On("GetByID", ctx, "book", line.SegmentID).Return(line, nil)
	f.segments.On("GetByID", ctx, "book", w0.SegmentID).Return(w0, nil)
	f.segments.On("WordsForLine", ctx, "book", line.SegmentID).Return([]domain.Segment{*w0}, nil)
	f.segments.On("LineForWord", ctx, "book", w0.SegmentID).Return(line, nil)
	f.projects.On("UpdateState", ctx, "book", mock.Anything, mock.Anything).Return(nil)
	f.segments.On("Navigation", ctx, "book", mock.Anything, mock.Anything).Return(&domain.Navigation{}, nil)

	word, err := f.svc.SwitchView(ctx, domain.ViewWord, "")
	require.NoError(t, err)
	assert.Equal(t, w0.SegmentID, word.SegmentID)
	assert.Equal(t, domain.ViewWord, word.View)

	back, err := f.svc.SwitchView(ctx, domain.ViewLine, word.SegmentID)
	require.NoError(t, err)
	assert.Equal(t, line.SegmentID, back.SegmentID)

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Session{ProjectID: "book", View: domain.ViewLine, SegmentID: line.SegmentID}, *state)
}

func TestSessionService_Save_PersistsPosition(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	a := lineSeg("A", 1, "a", lineBox)
	b := lineSeg("B", 2, "b", lineBox)

	f.projects.On("GetByID", ctx, "book").Return(&domain.Project{ProjectID: "book"}, nil)
	f.segments.On("First", ctx, "book", domain.ViewLine).Return(a, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewLine, "A").Return(nil).Once()
	f.segments.On("Navigation", ctx, "book", domain.ViewLine, mock.Anything).Return(&domain.Navigation{}, nil)
	_, err := f.svc.SwitchProject(ctx, "book")
	require.NoError(t, err)

	f.segments.On("GetByID", ctx, "book", "A").Return(a, nil)
	f.segments.On("WordsForLine", ctx, "book", "A").Return([]domain.Segment{}, nil)
	f.segments.On("SaveTexts", ctx, "book", []domain.TextUpdate{{SegmentID: "A", Text: "fixed"}}).Return(nil)
	f.segments.On("Neighbor", ctx, "book", domain.ViewLine, int64(1), domain.DirectionNext).Return(b, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewLine, "B").Return(nil).Once()

	payload, err := f.svc.Save(ctx, service.SaveInput{SegmentID: "A", View: domain.ViewLine, Text: "fixed", Action: domain.ActionSaveAndNext})
	require.NoError(t, err)
	assert.Equal(t, "B", payload.SegmentID)

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", state.SegmentID)
	f.projects.AssertExpectations(t)
	f.segments.AssertExpectations(t)
}

func TestSessionService_Resume_StaleSegmentFallsBackToFirst(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	first := lineSeg("p0000_l0000", 1<<20, "Hello world", lineBox)

	f.projects.On("MostRecent", ctx).Return(&domain.Project{
		ProjectID:     "book",
		LastView:      domain.ViewLine,
		LastSegmentID: "p0003_l0009",
	}, nil)
	f.segments.On("GetByID", ctx, "book", "p0003_l0009").Return(nil, domain.ErrSegmentNotFound)
	f.segments.On("First", ctx, "book", domain.ViewLine).Return(first, nil)
	f.projects.On("UpdateState", ctx, "book", domain.ViewLine, first.SegmentID).Return(nil)

	require.NoError(t, f.svc.Resume(ctx))

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "book", state.ProjectID)
	assert.Equal(t, first.SegmentID, state.SegmentID)
	f.projects.AssertNumberOfCalls(t, "MostRecent", 1)
}

func TestSessionService_Resume_NoProjects(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.projects.On("MostRecent", ctx).Return(nil, domain.ErrProjectNotFound)

	assert.ErrorIs(t, f.svc.Resume(ctx), domain.ErrNotFound)
}
