package port

import (
	"context"

	"lekha/internal/domain"
)

// OCREngine recognizes the words of one page image. A failure is returned
// as an error and never as an empty slice.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, page domain.PageImage) ([]domain.WordBox, error)
}
