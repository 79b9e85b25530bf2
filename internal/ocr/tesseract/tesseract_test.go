package tesseract

import (
	"errors"
	"image"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lekha/internal/domain"
	"lekha/internal/ocr"
)

func TestWordBoxes(t *testing.T) {
	in := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 50, 40), Word: "Hello", Confidence: 91},
		{Box: image.Rect(60, 20, 70, 40), Word: "  ", Confidence: 10},
		{Box: image.Rect(80, 21, 130, 41), Word: " world", Confidence: 88},
	}
	out := wordBoxes(in)

	require.Len(t, out, 2)
	assert.Equal(t, domain.WordBox{Text: "Hello", Left: 10, Top: 20, Width: 40, Height: 20, EngineID: Name}, out[0])
	assert.Equal(t, "world", out[1].Text)
}

func TestLanguageHint(t *testing.T) {
	err := languageHint(errors.New("Failed loading language 'san'"), []string{"san", "eng"})
	assert.ErrorIs(t, err, ErrMissingLanguage)
	assert.Contains(t, err.Error(), `"san+eng"`)

	other := errors.New("boom")
	err = languageHint(other, nil)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrMissingLanguage)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, ocr.Registered(), Name)
	eng := NewEngine([]string{"eng"})
	assert.Equal(t, Name, eng.Name())
}
