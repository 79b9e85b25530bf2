package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/imaging"
	"lekha/internal/port"
	"lekha/internal/textnorm"
)

// SaveInput is the DTO for saving the text of one segment.
type SaveInput struct {
	SegmentID string
	View      domain.View
	Text      string
	Action    domain.SaveAction
}

// SegmentPayload is the review API representation of a segment.
type SegmentPayload struct {
	SegmentID    string              `json:"segment_id"`
	View         domain.View         `json:"view"`
	Text         string              `json:"text"`
	ImageURL     string              `json:"image_url"`
	HasConflict  bool                `json:"has_conflict"`
	Alternatives domain.Alternatives `json:"alternatives"`
	Navigation   domain.Navigation   `json:"navigation"`
}

// SegmentService defines the segment store contract used by the review API.
type SegmentService interface {
	// Get returns segmentID, or its counterpart when view differs from the
	// segment's own view.
	Get(ctx context.Context, projectID, segmentID string, view domain.View) (*domain.Segment, error)
	// Save commits the text, clears the conflict flag and returns the
	// segment selected by the action.
	Save(ctx context.Context, projectID string, input SaveInput) (*domain.Segment, error)
	Payload(ctx context.Context, projectID string, seg *domain.Segment) (*SegmentPayload, error)
	// Image returns the padded PNG crop of a segment, or a blank placeholder
	// when the page image cannot be read.
	Image(ctx context.Context, projectID, segmentID string, view domain.View) ([]byte, error)
}

type segmentService struct {
	segmentRepo port.SegmentRepository
	pageRepo    port.PageRepository
	storage     port.ObjectStorage
	navigator   Navigator
	cfg         *config.S3Config
	logger      *slog.Logger
}

// NewSegmentService creates a new SegmentService implementation.
func NewSegmentService(
	segmentRepo port.SegmentRepository,
	pageRepo port.PageRepository,
	storage port.ObjectStorage,
	navigator Navigator,
	cfg *config.S3Config,
	logger *slog.Logger,
) SegmentService {
	return &segmentService{
		segmentRepo: segmentRepo,
		pageRepo:    pageRepo,
		storage:     storage,
		navigator:   navigator,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *segmentService) Get(ctx context.Context, projectID, segmentID string, view domain.View) (*domain.Segment, error) {
	seg, err := s.segmentRepo.GetByID(ctx, projectID, segmentID)
	if err != nil {
		return nil, err
	}
	if view == "" || seg.View == view {
		return seg, nil
	}
	if view == domain.ViewLine {
		return s.lineOf(ctx, projectID, seg)
	}
	return s.firstWordOf(ctx, projectID, seg)
}

// lineOf follows the word to line link, falling back to the line on the
// same page with the largest overlap.
func (s *segmentService) lineOf(ctx context.Context, projectID string, word *domain.Segment) (*domain.Segment, error) {
	line, err := s.segmentRepo.LineForWord(ctx, projectID, word.SegmentID)
	if err != nil {
		return nil, err
	}
	if line != nil {
		return line, nil
	}

	lines, err := s.segmentRepo.ListByPage(ctx, projectID, word.PageRef, domain.ViewLine)
	if err != nil {
		return nil, err
	}
	var best *domain.Segment
	bestArea := 0
	for i := range lines {
		if area := lines[i].BBox.Intersect(word.BBox).Area(); area > bestArea {
			best, bestArea = &lines[i], area
		}
	}
	if best == nil {
		return nil, domain.ErrSegmentNotFound
	}
	return best, nil
}

// firstWordOf returns the first linked word of a line, falling back to the
// first word on the same page that overlaps it.
func (s *segmentService) firstWordOf(ctx context.Context, projectID string, line *domain.Segment) (*domain.Segment, error) {
	words, err := s.segmentRepo.WordsForLine(ctx, projectID, line.SegmentID)
	if err != nil {
		return nil, err
	}
	if len(words) > 0 {
		return &words[0], nil
	}

	words, err = s.segmentRepo.ListByPage(ctx, projectID, line.PageRef, domain.ViewWord)
	if err != nil {
		return nil, err
	}
	for i := range words {
		if words[i].BBox.Intersect(line.BBox).Area() > 0 {
			return &words[i], nil
		}
	}
	return nil, domain.ErrSegmentNotFound
}

func (s *segmentService) Save(ctx context.Context, projectID string, input SaveInput) (*domain.Segment, error) {
	seg, err := s.segmentRepo.GetByID(ctx, projectID, input.SegmentID)
	if err != nil {
		return nil, err
	}
	if seg.View != input.View {
		return nil, domain.ErrSegmentNotFound
	}

	var updates []domain.TextUpdate
	if seg.View == domain.ViewLine {
		updates, err = s.lineUpdates(ctx, projectID, seg, input.Text)
	} else {
		updates, err = s.wordUpdates(ctx, projectID, seg, input.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("preparing save of %s: %w", seg.SegmentID, err)
	}
	if err := s.segmentRepo.SaveTexts(ctx, projectID, updates); err != nil {
		return nil, err
	}

	var target *domain.Segment
	switch input.Action {
	case domain.ActionSaveAndNext:
		target, err = s.navigator.Next(ctx, projectID, seg.View, seg.SegmentID)
	case domain.ActionSaveAndPrev:
		target, err = s.navigator.Prev(ctx, projectID, seg.View, seg.SegmentID)
	case domain.ActionSaveAndNextIssue:
		target, err = s.navigator.NextIssue(ctx, projectID, seg.View, seg.SegmentID)
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		// Plain saves and moves past either end stay on the saved segment.
		return s.segmentRepo.GetByID(ctx, projectID, seg.SegmentID)
	}
	return target, nil
}

// lineUpdates writes the line text and spreads its tokens over the line's
// words.
func (s *segmentService) lineUpdates(ctx context.Context, projectID string, line *domain.Segment, text string) ([]domain.TextUpdate, error) {
	words, err := s.segmentRepo.WordsForLine(ctx, projectID, line.SegmentID)
	if err != nil {
		return nil, err
	}
	updates := make([]domain.TextUpdate, 0, len(words)+1)
	updates = append(updates, domain.TextUpdate{SegmentID: line.SegmentID, Text: text})
	for i, token := range distributeTokens(text, len(words)) {
		updates = append(updates, domain.TextUpdate{SegmentID: words[i].SegmentID, Text: token})
	}
	return updates, nil
}

// wordUpdates writes the word text and recomposes its line. The line keeps
// a conflict while any other word still has one.
func (s *segmentService) wordUpdates(ctx context.Context, projectID string, word *domain.Segment, text string) ([]domain.TextUpdate, error) {
	updates := []domain.TextUpdate{{SegmentID: word.SegmentID, Text: text}}

	line, err := s.lineOf(ctx, projectID, word)
	if errors.Is(err, domain.ErrNotFound) {
		return updates, nil
	}
	if err != nil {
		return nil, err
	}
	words, err := s.segmentRepo.WordsForLine(ctx, projectID, line.SegmentID)
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(words))
	conflict := false
	for _, w := range words {
		t := w.Text
		if w.SegmentID == word.SegmentID {
			t = text
		} else {
			conflict = conflict || w.HasConflict
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return append(updates, domain.TextUpdate{
		SegmentID:   line.SegmentID,
		Text:        strings.Join(parts, " "),
		HasConflict: conflict,
	}), nil
}

// distributeTokens splits text over n words. Extra tokens join the last
// word and missing tokens become empty strings.
func distributeTokens(text string, n int) []string {
	if n == 0 {
		return nil
	}
	tokens := textnorm.Tokens(text)
	out := make([]string, n)
	if len(tokens) > n {
		copy(out, tokens[:n-1])
		out[n-1] = strings.Join(tokens[n-1:], " ")
		return out
	}
	copy(out, tokens)
	return out
}

func (s *segmentService) Payload(ctx context.Context, projectID string, seg *domain.Segment) (*SegmentPayload, error) {
	nav, err := s.segmentRepo.Navigation(ctx, projectID, seg.View, seg.OrderIndex)
	if err != nil {
		return nil, err
	}
	alts := seg.Alternatives
	if alts == nil {
		alts = domain.Alternatives{}
	}
	return &SegmentPayload{
		SegmentID:    seg.SegmentID,
		View:         seg.View,
		Text:         seg.Text,
		ImageURL:     ImageURL(seg.SegmentID, seg.View),
		HasConflict:  seg.HasConflict,
		Alternatives: alts,
		Navigation:   *nav,
	}, nil
}

// ImageURL returns the review API path serving the crop of a segment.
func ImageURL(segmentID string, view domain.View) string {
	return fmt.Sprintf("/api/v1/segments/%s/image?view=%s", url.PathEscape(segmentID), url.QueryEscape(string(view)))
}

func (s *segmentService) Image(ctx context.Context, projectID, segmentID string, view domain.View) ([]byte, error) {
	seg, err := s.Get(ctx, projectID, segmentID, view)
	if err != nil {
		return nil, err
	}
	page, err := s.pageRepo.GetByRef(ctx, projectID, seg.PageRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("page missing for segment", "project_id", projectID, "segment_id", seg.SegmentID, "page_ref", seg.PageRef)
			return imaging.PlaceholderPNG(seg.BBox), nil
		}
		return nil, err
	}

	data, err := s.storage.Download(ctx, s.cfg.Bucket, page.ImageKey)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("page image unavailable", "project_id", projectID, "page_ref", page.PageRef, "error", err)
		return imaging.PlaceholderPNG(seg.BBox), nil
	}
	crop, err := imaging.Crop(data, seg.BBox)
	if err != nil {
		s.logger.Warn("page image undecodable", "project_id", projectID, "page_ref", page.PageRef, "error", err)
		return imaging.PlaceholderPNG(seg.BBox), nil
	}
	return crop, nil
}
