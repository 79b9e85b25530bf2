package domain

import (
	"path/filepath"
	"strings"
)

// View selects the granularity segments are reviewed at.
type View string

const (
	ViewLine View = "line"
	ViewWord View = "word"
)

// Valid reports whether v names a known view.
func (v View) Valid() bool {
	return v == ViewLine || v == ViewWord
}

// ParseView converts a request value into a View. An empty value selects
// the line view.
func ParseView(s string) (View, error) {
	if s == "" {
		return ViewLine, nil
	}
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", ErrInvalidView
	}
	return v, nil
}

// SaveAction selects the segment returned after a save commits.
type SaveAction string

const (
	ActionSave             SaveAction = "save"
	ActionSaveAndNext      SaveAction = "save_and_next"
	ActionSaveAndPrev      SaveAction = "save_and_prev"
	ActionSaveAndNextIssue SaveAction = "save_and_next_issue"
)

// ParseSaveAction converts a request value into a SaveAction. An empty
// value means a plain save.
func ParseSaveAction(s string) (SaveAction, error) {
	switch a := SaveAction(s); a {
	case "":
		return ActionSave, nil
	case ActionSave, ActionSaveAndNext, ActionSaveAndPrev, ActionSaveAndNextIssue:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

// Direction is a one-step move along a view's order.
type Direction int

const (
	DirectionNext Direction = iota
	DirectionPrev
)

// EngineRunStatus records whether an engine produced output for a page.
type EngineRunStatus string

const (
	EngineRunOK     EngineRunStatus = "ok"
	EngineRunFailed EngineRunStatus = "failed"
)

// ExportFormat selects the consolidated document encoding.
type ExportFormat string

const (
	ExportText ExportFormat = "txt"
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat converts a request value into an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(s)); f {
	case "":
		return ExportText, nil
	case ExportText, ExportCSV, ExportXLSX:
		return f, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType returns the MIME type for the export format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv"
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// AllowedPageTypes maps accepted page image extensions to MIME types.
var AllowedPageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// PageContentType returns the MIME type for a page file name, or false
// when the extension is not an accepted image type.
func PageContentType(name string) (string, bool) {
	ct, ok := AllowedPageTypes[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}
