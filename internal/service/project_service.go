package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/export"
	"lekha/internal/port"
)

// ProjectSummary is one entry of the project listing.
type ProjectSummary struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	Label     string `json:"label" yaml:"label"`
}

// PageSummary describes one stored page image. URL is a presigned link to
// the original upload.
type PageSummary struct {
	PageRef   string `json:"page_ref" yaml:"page_ref"`
	PageIndex int    `json:"page_index" yaml:"page_index"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	URL       string `json:"url" yaml:"url"`
}

// ProjectService defines the project management contract.
type ProjectService interface {
	List(ctx context.Context) ([]ProjectSummary, error)
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	// Pages lists a project's pages in page order.
	Pages(ctx context.Context, projectID string) ([]PageSummary, error)
	// Delete removes a project, its segments and its stored page images.
	Delete(ctx context.Context, projectID string) error
	// DeleteAll removes every project and returns how many were deleted.
	DeleteAll(ctx context.Context) (int, error)
	// Export writes the current text of every line in project order.
	Export(ctx context.Context, projectID string, format domain.ExportFormat, w io.Writer) error
}

type projectService struct {
	projectRepo port.ProjectRepository
	pageRepo    port.PageRepository
	segmentRepo port.SegmentRepository
	storage     port.ObjectStorage
	cfg         *config.S3Config
	logger      *slog.Logger
}

// NewProjectService creates a new ProjectService implementation.
func NewProjectService(
	projectRepo port.ProjectRepository,
	pageRepo port.PageRepository,
	segmentRepo port.SegmentRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
	logger *slog.Logger,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		pageRepo:    pageRepo,
		segmentRepo: segmentRepo,
		storage:     storage,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *projectService) List(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(projects))
	for i := range projects {
		label := projects[i].Label
		if label == "" {
			label = projects[i].ProjectID
		}
		out = append(out, ProjectSummary{ProjectID: projects[i].ProjectID, Label: label})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *projectService) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	return s.projectRepo.GetByID(ctx, projectID)
}

func (s *projectService) Pages(ctx context.Context, projectID string) ([]PageSummary, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	pages, err := s.pageRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]PageSummary, 0, len(pages))
	for i := range pages {
		url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, pages[i].ImageKey, s.cfg.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presigning %s: %w", pages[i].PageRef, err)
		}
		out = append(out, PageSummary{
			PageRef:   pages[i].PageRef,
			PageIndex: pages[i].PageIndex,
			Width:     pages[i].Width,
			Height:    pages[i].Height,
			URL:       url,
		})
	}
	return out, nil
}

func (s *projectService) Delete(ctx context.Context, projectID string) error {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return err
	}
	if err := s.storage.DeletePrefix(ctx, s.cfg.Bucket, pagePrefix(projectID)); err != nil {
		return fmt.Errorf("deleting page images of %s: %w", projectID, err)
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return err
	}
	s.logger.Info("project deleted", "project_id", projectID)
	return nil
}

func (s *projectService) DeleteAll(ctx context.Context) (int, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i := range projects {
		if err := s.Delete(ctx, projects[i].ProjectID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *projectService) Export(ctx context.Context, projectID string, format domain.ExportFormat, w io.Writer) error {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return err
	}
	lines, err := s.segmentRepo.ListByView(ctx, projectID, domain.ViewLine)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, lines); err != nil {
		return fmt.Errorf("exporting %s as %s: %w", projectID, format, err)
	}
	return nil
}

// pagePrefix is the object key prefix holding a project's page images.
func pagePrefix(projectID string) string {
	return "projects/" + projectID + "/pages/"
}

// pageKey is the object key of one page image.
func pageKey(projectID, pageRef string) string {
	return pagePrefix(projectID) + pageRef
}
