package hocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/ocr"
	"lekha/internal/port"
)

const (
	// FileEngineName reads hOCR rendered ahead of time by an external tool.
	FileEngineName = "hocr"
	// KrakenEngineName runs the Kraken CLI with hOCR serialization.
	KrakenEngineName = "kraken"
)

func init() {
	ocr.RegisterEngine(FileEngineName, func(cfg *config.OCRConfig) (port.OCREngine, error) {
		if cfg.HOCRDir == "" {
			return nil, errors.New("hocr engine requires ocr.hocr_dir")
		}
		return NewFileEngine(cfg.HOCRDir), nil
	})
	ocr.RegisterEngine(KrakenEngineName, func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return NewKrakenEngine(cfg.KrakenModel), nil
	})
}

// FileEngine loads <dir>/<page stem>.hocr (or .html) for each page.
type FileEngine struct {
	dir string
}

// NewFileEngine creates an engine reading hOCR files from dir.
func NewFileEngine(dir string) *FileEngine {
	return &FileEngine{dir: dir}
}

func (e *FileEngine) Name() string { return FileEngineName }

func (e *FileEngine) Recognize(ctx context.Context, page domain.PageImage) ([]domain.WordBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(page.PageRef), filepath.Ext(page.PageRef))
	for _, ext := range []string{".hocr", ".html"} {
		data, err := os.ReadFile(filepath.Join(e.dir, stem+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read hocr for %s: %w", page.PageRef, err)
		}
		return Parse(data, FileEngineName)
	}
	return nil, fmt.Errorf("no hocr file for %s in %s", page.PageRef, e.dir)
}

// KrakenEngine shells out to `kraken ... -h segment -bl ocr`.
type KrakenEngine struct {
	model      string
	executable string
}

// NewKrakenEngine creates a Kraken engine. An empty model uses Kraken's
// default recognition model.
func NewKrakenEngine(model string) *KrakenEngine {
	return &KrakenEngine{model: model, executable: "kraken"}
}

func (e *KrakenEngine) Name() string { return KrakenEngineName }

func (e *KrakenEngine) Recognize(ctx context.Context, page domain.PageImage) ([]domain.WordBox, error) {
	bin, err := exec.LookPath(e.executable)
	if err != nil {
		return nil, fmt.Errorf("kraken CLI not found on PATH: %w", err)
	}

	dir, err := os.MkdirTemp("", "lekha-kraken-")
	if err != nil {
		return nil, fmt.Errorf("kraken temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "page"+filepath.Ext(page.PageRef))
	if err := os.WriteFile(input, page.Data, 0o600); err != nil {
		return nil, fmt.Errorf("kraken input: %w", err)
	}
	output := filepath.Join(dir, "page.hocr")

	args := []string{"-i", input, output, "-h", "segment", "-bl", "ocr"}
	if e.model != "" {
		args = append(args, "-m", e.model)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("kraken failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("kraken output: %w", err)
	}
	return Parse(data, KrakenEngineName)
}
