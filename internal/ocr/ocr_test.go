package ocr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/ocr"
	"lekha/internal/port"
	"lekha/mocks"
)

func TestSplitLine(t *testing.T) {
	boxes := ocr.SplitLine("Hello  brave world", domain.BBox{Left: 10, Top: 5, Width: 100, Height: 20}, "kraken")

	require.Len(t, boxes, 3)
	assert.Equal(t, domain.WordBox{Text: "Hello", Left: 10, Top: 5, Width: 33, Height: 20, EngineID: "kraken"}, boxes[0])
	assert.Equal(t, 43, boxes[1].Left)
	assert.Equal(t, 76, boxes[2].Left)
	assert.Equal(t, 34, boxes[2].Width)
	assert.Equal(t, 110, boxes[2].Left+boxes[2].Width)
}

func TestSplitLine_Empty(t *testing.T) {
	assert.Nil(t, ocr.SplitLine("   ", domain.BBox{Width: 10, Height: 10}, "x"))
	assert.Nil(t, ocr.SplitLine("word", domain.BBox{}, "x"))
}

func TestSplitLine_NarrowLine(t *testing.T) {
	boxes := ocr.SplitLine("a b c", domain.BBox{Left: 0, Top: 0, Width: 2, Height: 4}, "x")
	require.Len(t, boxes, 3)
	for _, b := range boxes {
		assert.Positive(t, b.Width)
	}
}

func TestRegistry(t *testing.T) {
	ocr.RegisterEngine("test-engine", func(cfg *config.OCRConfig) (port.OCREngine, error) {
		return &mocks.MockOCREngine{EngineName: "test-engine"}, nil
	})

	eng, err := ocr.NewEngine("test-engine", &config.OCRConfig{})
	require.NoError(t, err)
	assert.Equal(t, "test-engine", eng.Name())
	assert.Contains(t, ocr.Registered(), "test-engine")

	_, err = ocr.NewEngine("missing", &config.OCRConfig{})
	assert.ErrorIs(t, err, domain.ErrUnknownEngine)

	engines, err := ocr.NewEngines(&config.OCRConfig{Engines: []string{"test-engine", "test-engine"}})
	require.NoError(t, err)
	assert.Len(t, engines, 2)

	_, err = ocr.NewEngines(&config.OCRConfig{Engines: []string{"test-engine", "missing"}})
	assert.Error(t, err)
}
