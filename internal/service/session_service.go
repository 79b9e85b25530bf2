package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lekha/internal/domain"
	"lekha/internal/port"
)

// ProjectState is returned when the reviewer switches project.
type ProjectState struct {
	ProjectID string          `json:"project_id"`
	View      domain.View     `json:"view"`
	SegmentID string          `json:"segment_id"`
	Segment   *SegmentPayload `json:"segment"`
}

// SessionService holds the reviewer's active project, view and segment.
// An empty segment id means the active view has nothing to edit.
type SessionService interface {
	State(ctx context.Context) (*domain.Session, error)
	// ActiveProject returns the active project id or ErrInvalidState.
	ActiveProject(ctx context.Context) (string, error)
	// Resume activates the most recently opened project.
	Resume(ctx context.Context) error
	SwitchProject(ctx context.Context, projectID string) (*ProjectState, error)
	// SwitchView moves to the equivalent segment in view. A nil payload
	// means the view is empty.
	SwitchView(ctx context.Context, view domain.View, segmentID string) (*SegmentPayload, error)
	Open(ctx context.Context, segmentID string, view domain.View) (*SegmentPayload, error)
	Save(ctx context.Context, input SaveInput) (*SegmentPayload, error)
	Image(ctx context.Context, segmentID string, view domain.View) ([]byte, error)
}

type sessionService struct {
	mu          sync.Mutex
	session     *domain.Session
	projectRepo port.ProjectRepository
	segmentRepo port.SegmentRepository
	segments    SegmentService
	logger      *slog.Logger
}

// NewSessionService creates a SessionService with no active project.
func NewSessionService(
	projectRepo port.ProjectRepository,
	segmentRepo port.SegmentRepository,
	segments SegmentService,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		projectRepo: projectRepo,
		segmentRepo: segmentRepo,
		segments:    segments,
		logger:      logger,
	}
}

func (s *sessionService) State(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return nil, err
	}
	if s.session.SegmentID == "" {
		first, err := s.segmentRepo.First(ctx, s.session.ProjectID, s.session.View)
		if err != nil {
			return nil, err
		}
		if first != nil {
			s.session.SegmentID = first.SegmentID
		}
	}
	state := *s.session
	return &state, nil
}

func (s *sessionService) ActiveProject(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return "", err
	}
	return s.session.ProjectID, nil
}

func (s *sessionService) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.projectRepo.MostRecent(ctx)
	if err != nil {
		return err
	}
	_, err = s.activateLocked(ctx, project, true)
	return err
}

// ensureLocked resumes the most recent project when none is active.
func (s *sessionService) ensureLocked(ctx context.Context) error {
	if s.session != nil {
		return nil
	}
	project, err := s.projectRepo.MostRecent(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidState
	}
	if err != nil {
		return err
	}
	_, err = s.activateLocked(ctx, project, true)
	return err
}

// activateLocked makes project active at its remembered view. With resume
// set it returns to the remembered segment when that still exists; otherwise
// it starts at the first segment of the view.
func (s *sessionService) activateLocked(ctx context.Context, project *domain.Project, resume bool) (*domain.Segment, error) {
	view := project.LastView
	if !view.Valid() {
		view = domain.ViewLine
	}

	var seg *domain.Segment
	if resume && project.LastSegmentID != "" {
		last, err := s.segmentRepo.GetByID(ctx, project.ProjectID, project.LastSegmentID)
		switch {
		case err == nil && last.View == view:
			seg = last
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	if seg == nil {
		first, err := s.segmentRepo.First(ctx, project.ProjectID, view)
		if err != nil {
			return nil, err
		}
		seg = first
	}

	session := &domain.Session{ProjectID: project.ProjectID, View: view}
	if seg != nil {
		session.SegmentID = seg.SegmentID
	}
	if err := s.projectRepo.UpdateState(ctx, session.ProjectID, session.View, session.SegmentID); err != nil {
		return nil, err
	}
	s.session = session
	s.logger.Info("project activated", "project_id", session.ProjectID, "view", session.View, "segment_id", session.SegmentID)
	return seg, nil
}

// moveLocked records a new position and persists it on the project.
func (s *sessionService) moveLocked(ctx context.Context, view domain.View, segmentID string) error {
	if err := s.projectRepo.UpdateState(ctx, s.session.ProjectID, view, segmentID); err != nil {
		return err
	}
	s.session.View = view
	s.session.SegmentID = segmentID
	return nil
}

func (s *sessionService) SwitchProject(ctx context.Context, projectID string) (*ProjectState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	seg, err := s.activateLocked(ctx, project, false)
	if err != nil {
		return nil, err
	}

	state := &ProjectState{
		ProjectID: s.session.ProjectID,
		View:      s.session.View,
		SegmentID: s.session.SegmentID,
	}
	if seg != nil {
		state.Segment, err = s.segments.Payload(ctx, projectID, seg)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

func (s *sessionService) SwitchView(ctx context.Context, view domain.View, segmentID string) (*SegmentPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return nil, err
	}
	projectID := s.session.ProjectID
	if segmentID == "" {
		segmentID = s.session.SegmentID
	}

	var target *domain.Segment
	if segmentID != "" {
		seg, err := s.segments.Get(ctx, projectID, segmentID, view)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		target = seg
	}
	if target == nil {
		first, err := s.segmentRepo.First(ctx, projectID, view)
		if err != nil {
			return nil, err
		}
		target = first
	}

	if target == nil {
		return nil, s.moveLocked(ctx, view, "")
	}
	if err := s.moveLocked(ctx, view, target.SegmentID); err != nil {
		return nil, err
	}
	return s.segments.Payload(ctx, projectID, target)
}

func (s *sessionService) Open(ctx context.Context, segmentID string, view domain.View) (*SegmentPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return nil, err
	}
	seg, err := s.segments.Get(ctx, s.session.ProjectID, segmentID, view)
	if err != nil {
		return nil, err
	}
	return s.segments.Payload(ctx, s.session.ProjectID, seg)
}

func (s *sessionService) Save(ctx context.Context, input SaveInput) (*SegmentPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return nil, err
	}
	projectID := s.session.ProjectID
	seg, err := s.segments.Save(ctx, projectID, input)
	if err != nil {
		return nil, err
	}
	if err := s.moveLocked(ctx, seg.View, seg.SegmentID); err != nil {
		return nil, err
	}
	return s.segments.Payload(ctx, projectID, seg)
}

func (s *sessionService) Image(ctx context.Context, segmentID string, view domain.View) ([]byte, error) {
	projectID, err := s.ActiveProject(ctx)
	if err != nil {
		return nil, err
	}
	return s.segments.Image(ctx, projectID, segmentID, view)
}
