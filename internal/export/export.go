package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"lekha/internal/domain"
)

const sheetName = "Transcription"

// Write renders line segments, already in order, in the given format.
func Write(w io.Writer, format domain.ExportFormat, lines []domain.Segment) error {
	switch format {
	case domain.ExportText:
		return writeText(w, lines)
	case domain.ExportCSV:
		return writeCSV(w, lines)
	case domain.ExportXLSX:
		return writeXLSX(w, lines)
	default:
		return domain.ErrUnsupportedFormat
	}
}

// writeText emits one line of text per segment with a blank line between
// pages.
func writeText(w io.Writer, lines []domain.Segment) error {
	bw := bufio.NewWriter(w)
	for i, seg := range lines {
		if i > 0 && seg.PageIndex != lines[i-1].PageIndex {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(seg.Text + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, lines []domain.Segment) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteSegments(lines); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, lines []domain.Segment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range lines {
		row := segmentToRow(&lines[i])
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a project label for use in Content-Disposition.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "transcription"
	}
	return s
}

// BuildFilename returns {label}_{YYYY-MM-DD}.{format}.
func BuildFilename(label string, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(label), now.Format("2006-01-02"), format)
}
