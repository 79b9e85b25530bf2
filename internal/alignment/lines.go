package alignment

import (
	"sort"

	"lekha/internal/domain"
)

type band struct {
	boxes []domain.WordBox
}

// verticalOverlap returns the overlap of two boxes divided by the smaller
// of their heights.
func verticalOverlap(a, b domain.WordBox) float64 {
	overlap := min(a.Top+a.Height, b.Top+b.Height) - max(a.Top, b.Top)
	if overlap <= 0 {
		return 0
	}
	return float64(overlap) / float64(min(a.Height, b.Height))
}

// fit returns the weakest overlap of w with any box of the band. The band
// never stretches: a tall box does not pull neighbouring lines in.
func (b *band) fit(w domain.WordBox) float64 {
	weakest := 1.0
	for _, m := range b.boxes {
		weakest = min(weakest, verticalOverlap(m, w))
	}
	return weakest
}

func (b *band) medianTop() int {
	tops := make([]int, len(b.boxes))
	for i, w := range b.boxes {
		tops[i] = w.Top
	}
	sort.Ints(tops)
	return tops[len(tops)/2]
}

func (b *band) minLeft() int {
	left := b.boxes[0].Left
	for _, w := range b.boxes[1:] {
		left = min(left, w.Left)
	}
	return left
}

// clusterLines assigns each box to the band whose weakest overlap with it is
// largest, opening a new band when that overlap does not exceed the
// threshold for any band. Input must be sorted.
func clusterLines(boxes []domain.WordBox, threshold float64) []*band {
	var bands []*band
	for _, w := range boxes {
		best := -1
		bestRatio := 0.0
		for i, b := range bands {
			r := b.fit(w)
			if r > threshold && r > bestRatio {
				best, bestRatio = i, r
			}
		}
		if best < 0 {
			bands = append(bands, &band{boxes: []domain.WordBox{w}})
			continue
		}
		bands[best].boxes = append(bands[best].boxes, w)
	}

	sort.SliceStable(bands, func(i, j int) bool {
		mi, mj := bands[i].medianTop(), bands[j].medianTop()
		if mi != mj {
			return mi < mj
		}
		return bands[i].minLeft() < bands[j].minLeft()
	})
	return bands
}
