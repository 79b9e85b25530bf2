package service

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"lekha/internal/alignment"
	"lekha/internal/config"
	"lekha/internal/consensus"
	"lekha/internal/domain"
	"lekha/internal/imaging"
	"lekha/internal/port"
)

// PageInput is one page image handed to ingestion.
type PageInput struct {
	PageRef     string
	PageIndex   int
	Data        []byte
	ContentType string
}

// IngestReport summarizes a project ingestion.
type IngestReport struct {
	Project *domain.Project `json:"project" yaml:"project"`
	Pages   int             `json:"pages" yaml:"pages"`
	Failed  []PageFailure   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// PageFailure names a page that could not be ingested.
type PageFailure struct {
	PageRef string `json:"page_ref" yaml:"page_ref"`
	Error   string `json:"error" yaml:"error"`
}

// IngestService defines the ingestion contract: OCR, alignment and
// consensus over page images, persisted page by page.
type IngestService interface {
	// IngestProject ingests every page image under source. A failed page is
	// reported and does not stop the others.
	IngestProject(ctx context.Context, source string) (*IngestReport, error)
	// IngestPage runs every engine over one page and replaces its segments.
	IngestPage(ctx context.Context, project *domain.Project, page PageInput) error
	// Reingest rebuilds a page's segments from its archived engine runs.
	Reingest(ctx context.Context, projectID, pageRef string) error
}

type ingestService struct {
	projectRepo port.ProjectRepository
	pageRepo    port.PageRepository
	runRepo     port.EngineRunRepository
	segmentRepo port.SegmentRepository
	storage     port.ObjectStorage
	engines     []port.OCREngine
	resolver    *consensus.Resolver
	cfg         *config.Config
	logger      *slog.Logger
}

// NewIngestService creates a new IngestService implementation. Engines run
// in slice order.
func NewIngestService(
	projectRepo port.ProjectRepository,
	pageRepo port.PageRepository,
	runRepo port.EngineRunRepository,
	segmentRepo port.SegmentRepository,
	storage port.ObjectStorage,
	engines []port.OCREngine,
	cfg *config.Config,
	logger *slog.Logger,
) IngestService {
	return &ingestService{
		projectRepo: projectRepo,
		pageRepo:    pageRepo,
		runRepo:     runRepo,
		segmentRepo: segmentRepo,
		storage:     storage,
		engines:     engines,
		resolver:    consensus.NewResolver(cfg.PrimaryEngine(), cfg.Consensus.TieBreak),
		cfg:         cfg,
		logger:      logger,
	}
}

// ProjectID derives a stable project id from a source path: the slug of
// its base name and the first eight hex digits of the SHA-1 of the
// absolute path.
func ProjectID(absPath string) string {
	sum := sha1.Sum([]byte(absPath))
	digest := hex.EncodeToString(sum[:])[:8]
	base := filepath.Base(absPath)
	if slug := slugify(strings.TrimSuffix(base, filepath.Ext(base))); slug != "" {
		return slug + "-" + digest
	}
	return digest
}

func slugify(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return '-'
	}, strings.ToLower(name))
	parts := strings.FieldsFunc(mapped, func(r rune) bool { return r == '-' })
	return strings.Join(parts, "-")
}

// pageFiles lists the page images of source: the file itself, or the
// accepted images of a directory sorted by name.
func pageFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if _, ok := domain.PageContentType(source); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPage, filepath.Base(source))
		}
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := domain.PageContentType(e.Name()); ok {
			files = append(files, filepath.Join(source, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no page images in %s", domain.ErrUnsupportedPage, source)
	}
	return files, nil
}

func (s *ingestService) IngestProject(ctx context.Context, source string) (*IngestReport, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", source, err)
	}
	files, err := pageFiles(abs)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		ProjectID: ProjectID(abs),
		Label:     filepath.Base(abs),
		Source:    abs,
		Languages: domain.StringList(s.cfg.OCR.Languages),
		Engines:   domain.StringList(s.engineNames()),
		LastView:  domain.ViewLine,
	}
	if err := s.projectRepo.Upsert(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("ingesting project", "project_id", project.ProjectID, "pages", len(files), "engines", project.Engines)

	report := &IngestReport{Project: project}
	maxBytes := s.cfg.S3.MaxPageSizeMB * 1024 * 1024
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pageRef := filepath.Base(path)
		if err := s.ingestFile(ctx, project, i, path, maxBytes); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			s.logger.Error("page ingestion failed", "project_id", project.ProjectID, "page_ref", pageRef, "error", err)
			report.Failed = append(report.Failed, PageFailure{PageRef: pageRef, Error: err.Error()})
			continue
		}
		report.Pages++
	}

	if report.Pages == 0 {
		return report, fmt.Errorf("%w: all %d pages of %s failed", domain.ErrIngestionFailed, len(files), project.ProjectID)
	}
	return report, nil
}

func (s *ingestService) ingestFile(ctx context.Context, project *domain.Project, index int, path string, maxBytes int64) error {
	pageRef := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return &domain.PageError{PageRef: pageRef, Err: err}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return &domain.PageError{PageRef: pageRef, Err: fmt.Errorf("page is %d bytes, limit is %d", info.Size(), maxBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.PageError{PageRef: pageRef, Err: err}
	}
	contentType, _ := domain.PageContentType(path)
	return s.IngestPage(ctx, project, PageInput{
		PageRef:     pageRef,
		PageIndex:   index,
		Data:        data,
		ContentType: contentType,
	})
}

func (s *ingestService) engineNames() []string {
	names := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		names = append(names, e.Name())
	}
	return names
}

func (s *ingestService) IngestPage(ctx context.Context, project *domain.Project, input PageInput) error {
	width, height, err := imaging.Dimensions(input.Data)
	if err != nil {
		return &domain.PageError{PageRef: input.PageRef, Err: err}
	}

	key := pageKey(project.ProjectID, input.PageRef)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Data),
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
	})
	if err != nil {
		return &domain.PageError{PageRef: input.PageRef, Err: fmt.Errorf("uploading page image: %w", err)}
	}

	page := &domain.Page{
		ProjectID:   project.ProjectID,
		PageRef:     input.PageRef,
		PageIndex:   input.PageIndex,
		ImageKey:    key,
		ContentType: input.ContentType,
		Width:       width,
		Height:      height,
	}
	if err := s.pageRepo.Upsert(ctx, page); err != nil {
		if delErr := s.storage.Delete(ctx, s.cfg.S3.Bucket, key); delErr != nil {
			s.logger.WarnContext(ctx, "removing orphaned page image", "key", key, "error", delErr)
		}
		return &domain.PageError{PageRef: input.PageRef, Err: err}
	}

	image := domain.PageImage{
		PageRef:     input.PageRef,
		Data:        input.Data,
		ContentType: input.ContentType,
		Languages:   project.Languages,
	}
	runs := s.recognize(ctx, page, image)
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.replace(ctx, page, runs)
}

// recognize runs every engine over the page. A failed engine is archived
// as a failed run and logged; the others still count.
func (s *ingestService) recognize(ctx context.Context, page *domain.Page, image domain.PageImage) []domain.EngineRun {
	runs := make([]domain.EngineRun, 0, len(s.engines))
	for i, eng := range s.engines {
		run := domain.EngineRun{
			ProjectID: page.ProjectID,
			PageRef:   page.PageRef,
			RunID:     uuid.NewString(),
			EngineID:  eng.Name(),
			RunOrder:  i,
			Status:    domain.EngineRunOK,
		}

		boxes, err := s.recognizeOne(ctx, eng, image)
		if err != nil {
			engErr := &domain.EngineError{EngineID: eng.Name(), PageRef: page.PageRef, Err: err}
			s.logger.Warn("ocr engine skipped", "project_id", page.ProjectID, "page_ref", page.PageRef, "engine", eng.Name(), "error", engErr)
			run.Status = domain.EngineRunFailed
			run.Error = err.Error()
			run.Boxes = domain.WordBoxes{}
			runs = append(runs, run)
			continue
		}
		for j := range boxes {
			boxes[j].EngineID = run.EngineID
			boxes[j].RunID = run.RunID
		}
		run.Boxes = domain.WordBoxes(boxes)
		runs = append(runs, run)
	}
	return runs
}

func (s *ingestService) recognizeOne(ctx context.Context, eng port.OCREngine, image domain.PageImage) ([]domain.WordBox, error) {
	if s.cfg.OCR.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OCR.Timeout)
		defer cancel()
	}
	boxes, err := eng.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []domain.WordBox{}
	}
	return boxes, nil
}

func (s *ingestService) Reingest(ctx context.Context, projectID, pageRef string) error {
	page, err := s.pageRepo.GetByRef(ctx, projectID, pageRef)
	if err != nil {
		return err
	}
	runs, err := s.runRepo.ListByPage(ctx, projectID, pageRef)
	if err != nil {
		return err
	}
	return s.replace(ctx, page, runs)
}

// replace aligns the successful runs of a page, resolves consensus and
// swaps the page's segments in one transaction.
func (s *ingestService) replace(ctx context.Context, page *domain.Page, runs []domain.EngineRun) error {
	content, err := s.buildPage(page, runs)
	if err != nil {
		return err
	}
	if err := s.segmentRepo.ReplacePage(ctx, content); err != nil {
		return &domain.PageError{PageRef: page.PageRef, Err: err}
	}
	s.logger.Info("page ingested",
		"project_id", page.ProjectID,
		"page_ref", page.PageRef,
		"segments", len(content.Segments),
	)
	return nil
}

// buildPage turns engine runs into the line and word segments of a page.
// It fails when no run succeeded.
func (s *ingestService) buildPage(page *domain.Page, runs []domain.EngineRun) (*port.PageContent, error) {
	ordered := slices.Clone(runs)
	slices.SortStableFunc(ordered, func(a, b domain.EngineRun) int { return cmp.Compare(a.RunOrder, b.RunOrder) })

	var boxes []domain.WordBox
	var order []string
	var failures []error
	ok := 0
	for _, run := range ordered {
		if run.Status != domain.EngineRunOK {
			failures = append(failures, &domain.EngineError{EngineID: run.EngineID, PageRef: page.PageRef, Err: errors.New(run.Error)})
			continue
		}
		ok++
		boxes = append(boxes, run.Boxes...)
		order = append(order, domain.WordBox{EngineID: run.EngineID, RunID: run.RunID}.RunKey())
	}
	if ok == 0 {
		err := errors.Join(failures...)
		if err == nil {
			err = errors.New("no engine runs")
		}
		return nil, &domain.PageError{PageRef: page.PageRef, Err: err}
	}

	result := alignment.Align(boxes, alignment.Options{
		LineOverlap:   s.cfg.Alignment.LineOverlap,
		WordOverlap:   s.cfg.Alignment.WordOverlap,
		PrimaryEngine: s.cfg.PrimaryEngine(),
		RunOrder:      order,
	})
	for _, b := range result.Dropped {
		s.logger.Warn("dropped degenerate box",
			"project_id", page.ProjectID,
			"page_ref", page.PageRef,
			"engine", b.EngineID,
			"text", b.Text,
			"width", b.Width,
			"height", b.Height,
		)
	}

	content := &port.PageContent{
		ProjectID: page.ProjectID,
		PageRef:   page.PageRef,
		Runs:      runs,
	}
	for li, line := range result.Lines {
		words := make([]consensus.Resolution, len(line.Words))
		for wi, group := range line.Words {
			words[wi] = s.resolver.Resolve(group)
		}
		lineRes := consensus.ResolveLine(words)

		lineSeg := s.segment(page, li, nil, line.Group, lineRes)
		content.Segments = append(content.Segments, lineSeg)
		for wi, group := range line.Words {
			idx := wi
			wordSeg := s.segment(page, li, &idx, group, words[wi])
			content.Segments = append(content.Segments, wordSeg)
			content.Links = append(content.Links, domain.SegmentLink{
				ProjectID:     page.ProjectID,
				WordSegmentID: wordSeg.SegmentID,
				LineSegmentID: lineSeg.SegmentID,
			})
		}
	}
	return content, nil
}

func (s *ingestService) segment(page *domain.Page, line int, word *int, group domain.AlignedGroup, res consensus.Resolution) domain.Segment {
	seg := domain.Segment{
		ProjectID:    page.ProjectID,
		View:         domain.ViewLine,
		SegmentID:    domain.LineSegmentID(page.PageIndex, line),
		PageRef:      page.PageRef,
		PageIndex:    page.PageIndex,
		LineIndex:    line,
		WordIndex:    word,
		OrderIndex:   domain.OrderIndex(page.PageIndex, line, word),
		BBox:         group.BBox,
		Text:         res.Text,
		BaseText:     res.Text,
		HasConflict:  res.HasConflict,
		Alternatives: res.Alternatives,
		SourceGroups: domain.Groups{group},
	}
	if word != nil {
		seg.View = domain.ViewWord
		seg.SegmentID = domain.WordSegmentID(page.PageIndex, line, *word)
	}
	return seg
}
