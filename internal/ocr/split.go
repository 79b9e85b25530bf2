package ocr

import (
	"lekha/internal/domain"
	"lekha/internal/textnorm"
)

// SplitLine divides a line box reported without word boxes into evenly
// sized word boxes, one per whitespace-separated token. The last box
// absorbs the rounding remainder.
func SplitLine(text string, line domain.BBox, engineID string) []domain.WordBox {
	tokens := textnorm.Tokens(text)
	if len(tokens) == 0 || line.Empty() {
		return nil
	}
	step := line.Width / len(tokens)
	if step == 0 {
		step = 1
	}

	out := make([]domain.WordBox, 0, len(tokens))
	for i, tok := range tokens {
		left := line.Left + i*step
		width := step
		if i == len(tokens)-1 {
			width = max(line.Right()-left, 1)
		}
		out = append(out, domain.WordBox{
			Text:     tok,
			Left:     left,
			Top:      line.Top,
			Width:    width,
			Height:   line.Height,
			EngineID: engineID,
		})
	}
	return out
}
