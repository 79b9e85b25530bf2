package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"lekha/internal/config"
	"lekha/internal/logging"
	"lekha/internal/ocr"
	_ "lekha/internal/ocr/hocr"
	_ "lekha/internal/ocr/tesseract"
	"lekha/internal/port"
	"lekha/internal/repository/postgres"
	"lekha/internal/service"
	s3storage "lekha/internal/storage/s3"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlx.DB

	projectRepo port.ProjectRepository
	pageRepo    port.PageRepository
	runRepo     port.EngineRunRepository
	segmentRepo port.SegmentRepository
	storage     port.ObjectStorage

	navigator service.Navigator
	segments  service.SegmentService
	projects  service.ProjectService
	session   service.SessionService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	db, err := postgres.NewDB(ctx, &cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		projectRepo: postgres.NewProjectRepo(db),
		pageRepo:    postgres.NewPageRepo(db),
		runRepo:     postgres.NewEngineRunRepo(db),
		segmentRepo: postgres.NewSegmentRepo(db),
		storage:     storage,
	}
	a.navigator = service.NewNavigator(a.segmentRepo)
	a.segments = service.NewSegmentService(a.segmentRepo, a.pageRepo, a.storage, a.navigator, &cfg.S3, logger)
	a.projects = service.NewProjectService(a.projectRepo, a.pageRepo, a.segmentRepo, a.storage, &cfg.S3, logger)
	a.session = service.NewSessionService(a.projectRepo, a.segmentRepo, a.segments, logger)
	return a, nil
}

// ingester builds the ingestion service with the configured engines.
func (a *app) ingester() (service.IngestService, error) {
	engines, err := ocr.NewEngines(&a.cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ocr engines: %w", err)
	}
	return service.NewIngestService(
		a.projectRepo, a.pageRepo, a.runRepo, a.segmentRepo, a.storage,
		engines, a.cfg, a.logger,
	), nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
}
