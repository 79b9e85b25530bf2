// Package alignment groups word boxes from several OCR runs into lines and
// per-token groups. Align is pure: the same input always yields the same
// output.
package alignment

import (
	"sort"

	"lekha/internal/domain"
)

// Options holds the geometric thresholds used while grouping.
type Options struct {
	// LineOverlap is the vertical overlap, as a fraction of the smaller
	// height, that a box must exceed with every box of a line to join it.
	LineOverlap float64
	// WordOverlap is the horizontal Jaccard overlap two boxes from
	// different runs must exceed to be matched as the same token.
	WordOverlap float64
	// PrimaryEngine seeds word groups when set.
	PrimaryEngine string
	// RunOrder lists run keys (engine/run id) in the order the engines
	// ran. It decides the order boxes enter a group after the primary
	// engine. Runs missing from it follow, ordered by key.
	RunOrder []string
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{LineOverlap: 0.5, WordOverlap: 0.5}
}

// Line is one text line: every box of the line plus its word groups
// ordered left to right.
type Line struct {
	Group domain.AlignedGroup
	Words []domain.AlignedGroup
}

// Result is the output of one alignment pass.
type Result struct {
	Lines []Line
	// Dropped lists boxes with zero or negative width or height.
	Dropped []domain.WordBox
}

// Align clusters boxes into lines and matches words across runs.
func Align(boxes []domain.WordBox, opts Options) Result {
	var res Result
	valid := make([]domain.WordBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Width <= 0 || b.Height <= 0 {
			res.Dropped = append(res.Dropped, b)
			continue
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 {
		return res
	}

	sortBoxes(valid)
	for _, band := range clusterLines(valid, opts.LineOverlap) {
		var line Line
		for _, b := range band.boxes {
			line.Group.Add(b)
		}
		line.Words = matchWords(band.boxes, opts)
		res.Lines = append(res.Lines, line)
	}
	return res
}

// sortBoxes gives the input a total order so callers never depend on the
// order engines reported boxes in.
func sortBoxes(boxes []domain.WordBox) {
	sort.SliceStable(boxes, func(i, j int) bool {
		a, b := boxes[i], boxes[j]
		switch {
		case a.Top != b.Top:
			return a.Top < b.Top
		case a.Left != b.Left:
			return a.Left < b.Left
		case a.EngineID != b.EngineID:
			return a.EngineID < b.EngineID
		case a.RunID != b.RunID:
			return a.RunID < b.RunID
		case a.Height != b.Height:
			return a.Height < b.Height
		case a.Width != b.Width:
			return a.Width < b.Width
		default:
			return a.Text < b.Text
		}
	})
}
