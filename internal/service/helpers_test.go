package service_test

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"lekha/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func lineSeg(id string, order int64, text string, box domain.BBox) *domain.Segment {
	return &domain.Segment{
		ProjectID:  "proj",
		SegmentID:  id,
		View:       domain.ViewLine,
		PageRef:    "001.png",
		OrderIndex: order,
		BBox:       box,
		Text:       text,
	}
}

func wordSeg(id string, order int64, text string, conflict bool, box domain.BBox) *domain.Segment {
	idx := int(order) - 1
	return &domain.Segment{
		ProjectID:   "proj",
		SegmentID:   id,
		View:        domain.ViewWord,
		PageRef:     "001.png",
		WordIndex:   &idx,
		OrderIndex:  order,
		BBox:        box,
		Text:        text,
		HasConflict: conflict,
	}
}
