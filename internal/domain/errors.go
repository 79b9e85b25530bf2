package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrSegmentNotFound   = fmt.Errorf("segment %w", ErrNotFound)
	ErrProjectNotFound   = fmt.Errorf("project %w", ErrNotFound)
	ErrPageNotFound      = fmt.Errorf("page %w", ErrNotFound)
	ErrEngineUnavailable = errors.New("ocr engine unavailable")
	ErrIngestionFailed   = errors.New("page ingestion failed")
	ErrInvalidState      = errors.New("no active project")
	ErrInvalidView       = errors.New("view must be line or word")
	ErrInvalidAction     = errors.New("unknown save action")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrUnsupportedPage   = errors.New("unsupported page image type")
	ErrUnknownEngine     = errors.New("unknown ocr engine")
)

// EngineError reports a failed engine run. It matches ErrEngineUnavailable.
type EngineError struct {
	EngineID string
	PageRef  string
	Err      error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s on page %s: %v", e.EngineID, e.PageRef, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool { return target == ErrEngineUnavailable }

// PageError reports a page that could not be ingested. It matches
// ErrIngestionFailed.
type PageError struct {
	PageRef string
	Err     error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.PageRef, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

func (e *PageError) Is(target error) bool { return target == ErrIngestionFailed }
