// Package tesseract adapts the Tesseract OCR library to port.OCREngine.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/ocr"
	"lekha/internal/port"
)

// Name is the engine id recorded on every box this engine produces.
const Name = "tesseract"

func init() {
	ocr.RegisterEngine(Name, func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return NewEngine(cfg.Languages), nil
	})
}

// Engine runs Tesseract through gosseract, one client per page.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine(languages []string) *Engine {
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return Name }

type result struct {
	boxes []domain.WordBox
	err   error
}

// Recognize returns the word boxes of one page. gosseract has no
// cancellation hook, so a cancelled context abandons the running call.
func (e *Engine) Recognize(ctx context.Context, page domain.PageImage) ([]domain.WordBox, error) {
	languages := e.languages
	if len(page.Languages) > 0 {
		languages = page.Languages
	}

	done := make(chan result, 1)
	go func() {
		boxes, err := e.recognize(page.Data, languages)
		done <- result{boxes: boxes, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.boxes, r.err
	}
}

func (e *Engine) recognize(data []byte, languages []string) ([]domain.WordBox, error) {
	c := e.clientFactory()
	defer c.Close()

	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	words, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, languageHint(err, languages)
	}
	boxes := wordBoxes(words)
	if len(boxes) > 0 {
		return boxes, nil
	}

	// Some layouts only yield line boxes; split them into words.
	lines, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, languageHint(err, languages)
	}
	for _, l := range lines {
		bbox := domain.BBox{Left: l.Box.Min.X, Top: l.Box.Min.Y, Width: l.Box.Dx(), Height: l.Box.Dy()}
		boxes = append(boxes, ocr.SplitLine(l.Word, bbox, Name)...)
	}
	return boxes, nil
}

// wordBoxes converts gosseract word boxes, skipping blank tokens.
func wordBoxes(in []gosseract.BoundingBox) []domain.WordBox {
	out := make([]domain.WordBox, 0, len(in))
	for _, b := range in {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		out = append(out, domain.WordBox{
			Text:     text,
			Left:     b.Box.Min.X,
			Top:      b.Box.Min.Y,
			Width:    b.Box.Dx(),
			Height:   b.Box.Dy(),
			EngineID: Name,
		})
	}
	return out
}

var missingLanguagePatterns = []string{
	"error opening data file",
	"failed loading language",
	"couldn't load any languages",
	"could not initialize tesseract",
}

// ErrMissingLanguage reports absent traineddata for a configured language.
var ErrMissingLanguage = errors.New("tesseract language data not installed")

// languageHint turns Tesseract's initialization failures into an
// actionable message.
func languageHint(err error, languages []string) error {
	msg := strings.ToLower(err.Error())
	for _, p := range missingLanguagePatterns {
		if strings.Contains(msg, p) {
			lang := "eng"
			if len(languages) > 0 {
				lang = strings.Join(languages, "+")
			}
			return fmt.Errorf("%w for %q (install the traineddata or set TESSDATA_PREFIX): %v",
				ErrMissingLanguage, lang, err)
		}
	}
	return fmt.Errorf("recognize: %w", err)
}
