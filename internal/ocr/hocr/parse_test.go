package hocr_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"lekha/internal/domain"
	"lekha/internal/ocr/hocr"
)

const sample = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>page</title></head>
<body>
<div class="ocr_page" title="image page.png; bbox 0 0 1000 800">
 <span class="ocr_line" title="bbox 10 100 200 130">
  <span class="ocrx_word" title="bbox 10 100 60 130; x_wconf 95">Hello</span>
  <span class="ocrx_word" title="bbox 70 101 200 130; x_wconf 90"><strong>world</strong></span>
  <span class="ocrx_word" title="bbox 210 100 220 130">  </span>
 </span>
 <span class="ocr_line" title="bbox 10 200 110 230">second line</span>
</div>
</body></html>`

func TestParse(t *testing.T) {
	boxes, err := hocr.Parse([]byte(sample), "kraken")
	require.NoError(t, err)
	require.Len(t, boxes, 4)

	assert.Equal(t, domain.WordBox{Text: "Hello", Left: 10, Top: 100, Width: 50, Height: 30, EngineID: "kraken"}, boxes[0])
	assert.Equal(t, "world", boxes[1].Text)
	assert.Equal(t, 130, boxes[1].Width)

	// The second line has no word spans and is split evenly.
	assert.Equal(t, "second", boxes[2].Text)
	assert.Equal(t, 10, boxes[2].Left)
	assert.Equal(t, 50, boxes[2].Width)
	assert.Equal(t, "line", boxes[3].Text)
	assert.Equal(t, 60, boxes[3].Left)
}

func TestParse_NoPage(t *testing.T) {
	_, err := hocr.Parse([]byte("<html><body><p>plain</p></body></html>"), "hocr")
	assert.Error(t, err)
}

func TestParse_EmptyPage(t *testing.T) {
	boxes, err := hocr.Parse([]byte(`<div class="ocr_page" title="bbox 0 0 10 10"></div>`), "hocr")
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestParse_Latin1(t *testing.T) {
	doc := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=iso-8859-1"></head><body>
<div class="ocr_page"><span class="ocr_line" title="bbox 0 0 50 10">
<span class="ocrx_word" title="bbox 0 0 50 10">café</span></span></div></body></html>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(doc)
	require.NoError(t, err)

	boxes, err := hocr.Parse([]byte(encoded), "hocr")
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, "café", boxes[0].Text)
}

func TestParseBBox(t *testing.T) {
	box, ok := hocr.ParseBBox("baseline 0 -3; bbox 5 6 15 26; x_wconf 80")
	require.True(t, ok)
	assert.Equal(t, domain.BBox{Left: 5, Top: 6, Width: 10, Height: 20}, box)

	_, ok = hocr.ParseBBox("x_wconf 80")
	assert.False(t, ok)
	_, ok = hocr.ParseBBox("bbox a b c d")
	assert.False(t, ok)
}

func TestFileEngine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001.hocr"), []byte(sample), 0o600))

	eng := hocr.NewFileEngine(dir)
	assert.Equal(t, hocr.FileEngineName, eng.Name())

	boxes, err := eng.Recognize(context.Background(), domain.PageImage{PageRef: "0001.png"})
	require.NoError(t, err)
	assert.Len(t, boxes, 4)
	assert.Equal(t, hocr.FileEngineName, boxes[0].EngineID)

	_, err = eng.Recognize(context.Background(), domain.PageImage{PageRef: "0002.png"})
	assert.Error(t, err)
}

func TestFileEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := hocr.NewFileEngine(t.TempDir()).Recognize(ctx, domain.PageImage{PageRef: "x.png"})
	assert.ErrorIs(t, err, context.Canceled)
}
