package domain

import (
	"fmt"
	"time"
)

// BBox is an axis-aligned rectangle in page pixel coordinates.
type BBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge.
func (b BBox) Right() int { return b.Left + b.Width }

// Bottom returns the exclusive bottom edge.
func (b BBox) Bottom() int { return b.Top + b.Height }

// Empty reports whether the box has no area.
func (b BBox) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Union returns the smallest box covering both b and o. An empty box is ignored.
func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	left := min(b.Left, o.Left)
	top := min(b.Top, o.Top)
	right := max(b.Right(), o.Right())
	bottom := max(b.Bottom(), o.Bottom())
	return BBox{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Intersect returns the overlapping area of b and o, or an empty box.
func (b BBox) Intersect(o BBox) BBox {
	left := max(b.Left, o.Left)
	top := max(b.Top, o.Top)
	right := min(b.Right(), o.Right())
	bottom := min(b.Bottom(), o.Bottom())
	if right <= left || bottom <= top {
		return BBox{}
	}
	return BBox{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Area returns width * height, or zero for an empty box.
func (b BBox) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// WordBox is one recognized token reported by one OCR engine run.
type WordBox struct {
	Text     string `json:"text"`
	Left     int    `json:"left"`
	Top      int    `json:"top"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	EngineID string `json:"engine_id"`
	RunID    string `json:"run_id"`
}

// BBox returns the geometry of the word box.
func (w WordBox) BBox() BBox {
	return BBox{Left: w.Left, Top: w.Top, Width: w.Width, Height: w.Height}
}

// RunKey identifies the run that produced the box.
func (w WordBox) RunKey() string {
	return w.EngineID + "/" + w.RunID
}

// AlignedGroup is a set of word boxes from different runs believed to
// describe the same token or line.
type AlignedGroup struct {
	Boxes []WordBox `json:"boxes"`
	BBox  BBox      `json:"bbox"`
}

// Add appends a box and grows the group geometry.
func (g *AlignedGroup) Add(w WordBox) {
	g.Boxes = append(g.Boxes, w)
	g.BBox = g.BBox.Union(w.BBox())
}

// Sources returns the number of distinct runs contributing to the group.
func (g AlignedGroup) Sources() int {
	seen := make(map[string]struct{}, len(g.Boxes))
	for _, b := range g.Boxes {
		seen[b.RunKey()] = struct{}{}
	}
	return len(seen)
}

// Project is one ingested source directory of page images.
type Project struct {
	ProjectID     string     `db:"project_id" json:"project_id"`
	Label         string     `db:"label" json:"label"`
	Source        string     `db:"source" json:"source"`
	Languages     StringList `db:"languages" json:"languages"`
	Engines       StringList `db:"engines" json:"engines"`
	LastView      View       `db:"last_view" json:"last_view"`
	LastSegmentID string     `db:"last_segment_id" json:"last_segment_id"`
	LastOpenedAt  *time.Time `db:"last_opened_at" json:"last_opened_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Page is one scanned image of a project.
type Page struct {
	ProjectID   string    `db:"project_id" json:"project_id"`
	PageRef     string    `db:"page_ref" json:"page_ref"`
	PageIndex   int       `db:"page_index" json:"page_index"`
	ImageKey    string    `db:"image_key" json:"image_key"`
	ContentType string    `db:"content_type" json:"content_type"`
	Width       int       `db:"width" json:"width"`
	Height      int       `db:"height" json:"height"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PageImage is the payload handed to OCR engines.
type PageImage struct {
	PageRef     string
	Data        []byte
	ContentType string
	Languages   []string
}

// EngineRun archives the raw output of one engine over one page.
type EngineRun struct {
	ProjectID string          `db:"project_id" json:"project_id"`
	PageRef   string          `db:"page_ref" json:"page_ref"`
	RunID     string          `db:"run_id" json:"run_id"`
	EngineID  string          `db:"engine_id" json:"engine_id"`
	RunOrder  int             `db:"run_order" json:"run_order"`
	Status    EngineRunStatus `db:"status" json:"status"`
	Error     string          `db:"error" json:"error"`
	Boxes     WordBoxes       `db:"boxes" json:"boxes"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Segment is one reviewable unit of text in a given view.
type Segment struct {
	ProjectID    string       `db:"project_id" json:"project_id"`
	SegmentID    string       `db:"segment_id" json:"segment_id"`
	View         View         `db:"view" json:"view"`
	PageRef      string       `db:"page_ref" json:"page_ref"`
	PageIndex    int          `db:"page_index" json:"page_index"`
	LineIndex    int          `db:"line_index" json:"line_index"`
	WordIndex    *int         `db:"word_index" json:"word_index,omitempty"`
	OrderIndex   int64        `db:"order_index" json:"order_index"`
	BBox         BBox         `db:"bbox" json:"bbox"`
	Text         string       `db:"text" json:"text"`
	BaseText     string       `db:"base_text" json:"base_text"`
	HasConflict  bool         `db:"has_conflict" json:"has_conflict"`
	Edited       bool         `db:"edited" json:"edited"`
	Alternatives Alternatives `db:"alternatives" json:"alternatives"`
	SourceGroups Groups       `db:"source_groups" json:"source_groups"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// SegmentLink maps a word segment to the line segment that contains it.
type SegmentLink struct {
	ProjectID     string `db:"project_id" json:"project_id"`
	WordSegmentID string `db:"word_segment_id" json:"word_segment_id"`
	LineSegmentID string `db:"line_segment_id" json:"line_segment_id"`
}

// TextUpdate is one segment write applied by a save.
type TextUpdate struct {
	SegmentID   string
	Text        string
	HasConflict bool
}

// Session is the reviewer's current position.
type Session struct {
	ProjectID string `json:"project_id"`
	View      View   `json:"view"`
	SegmentID string `json:"segment_id"`
}

// Navigation reports which moves are possible from a segment.
type Navigation struct {
	CanPrev      bool `db:"can_prev" json:"can_prev"`
	CanNext      bool `db:"can_next" json:"can_next"`
	HasNextIssue bool `db:"has_next_issue" json:"has_next_issue"`
}

const (
	lineShift = 40
	wordShift = 20
)

// OrderIndex packs a segment position into a sortable integer. Line
// segments pass a nil word index and take slot zero.
func OrderIndex(pageIndex, lineIndex int, wordIndex *int) int64 {
	slot := int64(0)
	if wordIndex != nil {
		slot = int64(*wordIndex) + 1
	}
	return int64(pageIndex)<<lineShift | int64(lineIndex)<<wordShift | slot
}

// LineSegmentID returns the stable id of a line segment.
func LineSegmentID(pageIndex, lineIndex int) string {
	return fmt.Sprintf("p%04d_l%04d", pageIndex, lineIndex)
}

// WordSegmentID returns the stable id of a word segment.
func WordSegmentID(pageIndex, lineIndex, wordIndex int) string {
	return fmt.Sprintf("p%04d_l%04d_w%04d", pageIndex, lineIndex, wordIndex)
}
