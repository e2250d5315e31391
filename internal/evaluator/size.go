package evaluator

import (
	"math"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
	"github.com/mwiater/compbench/internal/matcher"
)

// SizePolicy holds the size comparison tolerance.
type SizePolicy struct {
	// AreaTolerance is the relative area difference, measured against the
	// larger area, at or below which two boxes count as the same size.
	AreaTolerance float64 `json:"area_tolerance" yaml:"area_tolerance"`
}

// DefaultSizePolicy returns AreaTolerance 0.01.
func DefaultSizePolicy() SizePolicy {
	return SizePolicy{AreaTolerance: 0.01}
}

// Compare returns the size of a relative to b.
func (p SizePolicy) Compare(a, b detection.Box) SizeRelation {
	aa, ba := a.Area(), b.Area()
	larger := math.Max(aa, ba)
	if larger == 0 || math.Abs(aa-ba) <= p.AreaTolerance*larger {
		return SameSize
	}
	if aa > ba {
		return Larger
	}
	return Smaller
}

// Size checks the relative area of the representative instances.
type Size struct {
	Policy SizePolicy
}

// Category implements Evaluator.
func (Size) Category() dataset.Category { return dataset.Size }

// Evaluate implements Evaluator. Three slots check (0 rel1 1) and (0 rel2 2);
// four slots check (0 rel1 1), (0 rel1 2) and (0 rel2 3). Areas within the
// tolerance never satisfy either relation.
func (s Size) Evaluate(rec dataset.PromptRecord, matches []matcher.MatchResult) Verdict {
	v := newVerdict(rec, dataset.Size)

	rels := make([]SizeRelation, 0, len(rec.Relations))
	for _, raw := range rec.Relations {
		r, ok := ParseSizeRelation(raw)
		if !ok {
			return v.fail("unknown size relation %q", raw)
		}
		rels = append(rels, r)
	}
	if len(rels) == 0 {
		return v.fail("record has no relation")
	}

	boxes, missing := representativeBoxes(matches)
	if missing != "" {
		return v.fail("no %s detected", missing)
	}

	type pair struct {
		i, j int
		rel  SizeRelation
	}
	var pairs []pair
	switch len(boxes) {
	case 2:
		pairs = []pair{{0, 1, rels[0]}}
	case 3, 4:
		if len(rels) < 2 {
			return v.fail("%d objects need two relations", len(boxes))
		}
		pairs = []pair{{0, 1, rels[0]}, {0, 2, rels[1]}}
		if len(boxes) == 4 {
			pairs = []pair{{0, 1, rels[0]}, {0, 2, rels[0]}, {0, 3, rels[1]}}
		}
	default:
		return v.fail("unsupported object count %d", len(boxes))
	}

	for _, p := range pairs {
		got := s.Policy.Compare(boxes[p.i], boxes[p.j])
		if got == SameSize {
			return v.fail("%s and %s have the same size", matches[p.i].Label, matches[p.j].Label)
		}
		if got != p.rel {
			return v.fail("expected %s %s than %s, got %s", matches[p.i].Label, p.rel, matches[p.j].Label, got)
		}
	}
	v.Correct = true
	return v
}
