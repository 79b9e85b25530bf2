package alignment

import (
	"sort"

	"lekha/internal/domain"
	"lekha/internal/textnorm"
)

type run struct {
	key    string
	engine string
	boxes  []domain.WordBox
}

type candidate struct {
	group int
	box   int
	score float64
}

// matchWords builds the word groups of one line. Runs are visited in a fixed
// order; the first seeds the groups and each later run is matched greedily,
// best score first, with at most one box per run in any group.
func matchWords(boxes []domain.WordBox, opts Options) []domain.AlignedGroup {
	runs := splitRuns(boxes, opts.PrimaryEngine, opts.RunOrder)

	var groups []domain.AlignedGroup
	for _, r := range runs {
		var cands []candidate
		for gi := range groups {
			for bi, b := range r.boxes {
				j := horizontalJaccard(groups[gi].BBox, b.BBox())
				if j <= opts.WordOverlap {
					continue
				}
				score := j + textnorm.Similarity(groups[gi].Boxes[0].Text, b.Text)
				cands = append(cands, candidate{group: gi, box: bi, score: score})
			}
		}
		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			if a.score != b.score {
				return a.score > b.score
			}
			if a.group != b.group {
				return a.group < b.group
			}
			return a.box < b.box
		})

		groupTaken := make([]bool, len(groups))
		boxTaken := make([]bool, len(r.boxes))
		for _, c := range cands {
			if groupTaken[c.group] || boxTaken[c.box] {
				continue
			}
			groupTaken[c.group] = true
			boxTaken[c.box] = true
			groups[c.group].Add(r.boxes[c.box])
		}
		for bi, b := range r.boxes {
			if boxTaken[bi] {
				continue
			}
			var g domain.AlignedGroup
			g.Add(b)
			groups = append(groups, g)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].BBox, groups[j].BBox
		if a.Left != b.Left {
			return a.Left < b.Left
		}
		return a.Top < b.Top
	})
	return groups
}

// splitRuns partitions boxes by run. The primary engine's runs come first,
// the rest follow in run order, then by key.
func splitRuns(boxes []domain.WordBox, primary string, order []string) []*run {
	rank := make(map[string]int, len(order))
	for i, key := range order {
		if _, ok := rank[key]; !ok {
			rank[key] = i
		}
	}
	position := func(key string) int {
		if i, ok := rank[key]; ok {
			return i
		}
		return len(order)
	}

	byKey := make(map[string]*run)
	var runs []*run
	for _, b := range boxes {
		key := b.RunKey()
		r, ok := byKey[key]
		if !ok {
			r = &run{key: key, engine: b.EngineID}
			byKey[key] = r
			runs = append(runs, r)
		}
		r.boxes = append(r.boxes, b)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		pi, pj := runs[i].engine == primary, runs[j].engine == primary
		if pi != pj {
			return pi
		}
		if oi, oj := position(runs[i].key), position(runs[j].key); oi != oj {
			return oi < oj
		}
		return runs[i].key < runs[j].key
	})
	for _, r := range runs {
		sort.SliceStable(r.boxes, func(i, j int) bool {
			if r.boxes[i].Left != r.boxes[j].Left {
				return r.boxes[i].Left < r.boxes[j].Left
			}
			return r.boxes[i].Top < r.boxes[j].Top
		})
	}
	return runs
}

// horizontalJaccard returns intersection over union of the horizontal
// extents of a and b.
func horizontalJaccard(a, b domain.BBox) float64 {
	inter := min(a.Right(), b.Right()) - max(a.Left, b.Left)
	if inter <= 0 {
		return 0
	}
	union := max(a.Right(), b.Right()) - min(a.Left, b.Left)
	return float64(inter) / float64(union)
}
