// Package consensus picks one transcription per aligned group and flags
// groups whose runs disagreed.
package consensus

import (
	"fmt"
	"strings"

	"lekha/internal/domain"
	"lekha/internal/textnorm"
)

// TieBreak selects the winner when several readings share the top vote.
type TieBreak string

const (
	// TieBreakPrimary prefers the primary engine's reading and falls back
	// to run order when the primary engine contributed no box.
	TieBreakPrimary TieBreak = "primary"
	// TieBreakRunOrder prefers the reading seen first in the group. Boxes
	// enter a group in run order.
	TieBreakRunOrder TieBreak = "run_order"
	// TieBreakLexical prefers the smallest normalized reading.
	TieBreakLexical TieBreak = "lexical"
)

// ParseTieBreak validates a configured tie-break policy.
func ParseTieBreak(s string) (TieBreak, error) {
	switch t := TieBreak(s); t {
	case "":
		return TieBreakPrimary, nil
	case TieBreakPrimary, TieBreakRunOrder, TieBreakLexical:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tie break %q", s)
	}
}

// Resolution is the consensus outcome of one group.
type Resolution struct {
	Text         string
	HasConflict  bool
	Alternatives domain.Alternatives
}

// Resolver applies plurality voting with a configured tie-break.
type Resolver struct {
	primary  string
	tieBreak TieBreak
}

// NewResolver creates a resolver. primary may be empty.
func NewResolver(primary string, tieBreak TieBreak) *Resolver {
	if tieBreak == "" {
		tieBreak = TieBreakPrimary
	}
	return &Resolver{primary: primary, tieBreak: tieBreak}
}

type reading struct {
	norm    string
	count   int
	first   int
	primary int
}

// Resolve returns the consensus text of a group. A group with a single
// source, or whose readings agree after normalization, is not a conflict.
func (r *Resolver) Resolve(g domain.AlignedGroup) Resolution {
	res := Resolution{Alternatives: alternatives(g.Boxes)}
	if len(g.Boxes) == 0 {
		return res
	}

	var readings []*reading
	index := make(map[string]*reading)
	for i, b := range g.Boxes {
		n := textnorm.Normalize(b.Text)
		rd, ok := index[n]
		if !ok {
			rd = &reading{norm: n, first: i, primary: -1}
			index[n] = rd
			readings = append(readings, rd)
		}
		rd.count++
		if rd.primary < 0 && r.primary != "" && b.EngineID == r.primary {
			rd.primary = i
		}
	}

	if len(readings) == 1 || g.Sources() == 1 {
		res.Text = r.display(g.Boxes, readings[0])
		return res
	}

	res.Text = r.display(g.Boxes, r.winner(readings))
	res.HasConflict = true
	return res
}

func (r *Resolver) winner(readings []*reading) *reading {
	top := 0
	for _, rd := range readings {
		top = max(top, rd.count)
	}
	var tied []*reading
	for _, rd := range readings {
		if rd.count == top {
			tied = append(tied, rd)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	switch r.tieBreak {
	case TieBreakLexical:
		best := tied[0]
		for _, rd := range tied[1:] {
			if rd.norm < best.norm {
				best = rd
			}
		}
		return best
	case TieBreakPrimary:
		for _, rd := range tied {
			if rd.primary >= 0 {
				return rd
			}
		}
	}
	// Readings are kept in first-seen order.
	return tied[0]
}

// display returns the surface form of a reading, taken from the primary
// engine's box when it has one.
func (r *Resolver) display(boxes []domain.WordBox, rd *reading) string {
	if rd.primary >= 0 {
		return textnorm.Display(boxes[rd.primary].Text)
	}
	return textnorm.Display(boxes[rd.first].Text)
}

// alternatives records what each run read. A second run of the same engine
// is keyed by engine and run id.
func alternatives(boxes []domain.WordBox) domain.Alternatives {
	alts := make(domain.Alternatives, len(boxes))
	for _, b := range boxes {
		key := b.EngineID
		if _, taken := alts[key]; taken {
			key = b.EngineID + "#" + b.RunID
		}
		alts[key] = textnorm.Display(b.Text)
	}
	return alts
}

// ResolveLine composes a line from its resolved words. The line conflicts
// when any word does; each engine's alternative is its words joined, and a
// word an engine missed contributes the consensus text.
func ResolveLine(words []Resolution) Resolution {
	res := Resolution{Alternatives: domain.Alternatives{}}
	texts := make([]string, 0, len(words))
	engines := make(map[string]struct{})
	for _, w := range words {
		if w.Text != "" {
			texts = append(texts, w.Text)
		}
		res.HasConflict = res.HasConflict || w.HasConflict
		for e := range w.Alternatives {
			engines[e] = struct{}{}
		}
	}
	res.Text = strings.Join(texts, " ")

	for e := range engines {
		parts := make([]string, 0, len(words))
		for _, w := range words {
			alt, ok := w.Alternatives[e]
			if !ok {
				alt = w.Text
			}
			if alt != "" {
				parts = append(parts, alt)
			}
		}
		res.Alternatives[e] = strings.Join(parts, " ")
	}
	return res
}
