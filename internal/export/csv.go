// Package export renders a project's reviewed line segments as a single
// document.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"lekha/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the tabular header row shared by CSV and XLSX output.
var columns = []string{
	"Page",
	"Page Ref",
	"Line",
	"Segment ID",
	"Text",
	"OCR Text",
	"Conflict",
	"Edited",
}

// CSVWriter wraps csv.Writer for exporting line segments.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteSegments converts segments to rows and writes them.
func (w *CSVWriter) WriteSegments(segs []domain.Segment) error {
	for i := range segs {
		if err := w.csv.Write(segmentToRow(&segs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func segmentToRow(seg *domain.Segment) []string {
	return []string{
		strconv.Itoa(seg.PageIndex + 1),
		seg.PageRef,
		strconv.Itoa(seg.LineIndex + 1),
		seg.SegmentID,
		seg.Text,
		seg.BaseText,
		formatBool(seg.HasConflict),
		formatBool(seg.Edited),
	}
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
