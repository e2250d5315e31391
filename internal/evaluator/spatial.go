package evaluator

import (
	"math"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
	"github.com/mwiater/compbench/internal/matcher"
)

// SpatialPolicy holds the thresholds of the spatial classifier.
type SpatialPolicy struct {
	// DominanceRatio is how much larger |dx| must be than |dy| for a
	// displacement to count as horizontal.
	DominanceRatio float64 `json:"dominance_ratio" yaml:"dominance_ratio"`
	// InsideOverlap is the share of a box's area that must overlap the other
	// box for it to count as inside.
	InsideOverlap float64 `json:"inside_overlap" yaml:"inside_overlap"`
}

// DefaultSpatialPolicy returns DominanceRatio 1 and InsideOverlap 0.9.
func DefaultSpatialPolicy() SpatialPolicy {
	return SpatialPolicy{DominanceRatio: 1.0, InsideOverlap: 0.9}
}

// Classify returns the relation of box a with respect to box b. Containment is
// checked first; otherwise the dominant axis of the center displacement
// decides. Swapping a and b yields the inverse relation.
func (p SpatialPolicy) Classify(a, b detection.Box) Relation {
	overlap := a.Intersect(b).Area()
	aInB := a.Area() > 0 && overlap/a.Area() >= p.InsideOverlap
	bInA := b.Area() > 0 && overlap/b.Area() >= p.InsideOverlap
	switch {
	case aInB && bInA:
		return NoRelation
	case aInB:
		return Inside
	case bInA:
		return Contains
	}

	ax, ay := a.Center()
	bx, by := b.Center()
	dx, dy := ax-bx, ay-by
	if dx == 0 && dy == 0 {
		return NoRelation
	}
	if math.Abs(dx) >= p.DominanceRatio*math.Abs(dy) {
		if dx < 0 {
			return LeftOf
		}
		return RightOf
	}
	if dy < 0 {
		return Above
	}
	return Below
}

// between reports whether a lies between b and c along either axis.
func (p SpatialPolicy) between(a, b, c detection.Box) bool {
	ab, ac := p.Classify(a, b), p.Classify(a, c)
	switch {
	case ab == RightOf && ac == LeftOf, ab == LeftOf && ac == RightOf:
		return true
	case ab == Below && ac == Above, ab == Above && ac == Below:
		return true
	}
	return false
}

// Spatial checks the relative position of the representative instances.
type Spatial struct {
	Policy SpatialPolicy
}

// Category implements Evaluator.
func (Spatial) Category() dataset.Category { return dataset.Spatial }

// Evaluate implements Evaluator. Two slots are compared directly. Three slots
// check (0 rel1 1) and (0 rel2 2), or that 0 lies between 1 and 2. Four slots
// check both 0 and 1 against 2 with rel1 and against 3 with rel2, or that both
// lie between 2 and 3.
func (s Spatial) Evaluate(rec dataset.PromptRecord, matches []matcher.MatchResult) Verdict {
	v := newVerdict(rec, dataset.Spatial)

	rels := make([]Relation, 0, len(rec.Relations))
	for _, raw := range rec.Relations {
		r, ok := ParseRelation(raw)
		if !ok {
			return v.fail("unknown relation %q", raw)
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

	check := func(i int, rel Relation, j int) bool {
		return s.Policy.Classify(boxes[i], boxes[j]) == rel
	}
	isBetween := rels[0] == Between

	switch len(boxes) {
	case 2:
		if isBetween {
			return v.fail("between needs three objects")
		}
		if got := s.Policy.Classify(boxes[0], boxes[1]); got != rels[0] {
			return v.fail("expected %s %s %s, got %s", matches[0].Label, rels[0], matches[1].Label, got)
		}
	case 3:
		switch {
		case isBetween:
			if !s.Policy.between(boxes[0], boxes[1], boxes[2]) {
				return v.fail("%s is not between %s and %s", matches[0].Label, matches[1].Label, matches[2].Label)
			}
		case len(rels) < 2:
			return v.fail("three objects need two relations")
		case !check(0, rels[0], 1):
			return v.fail("expected %s %s %s", matches[0].Label, rels[0], matches[1].Label)
		case !check(0, rels[1], 2):
			return v.fail("expected %s %s %s", matches[0].Label, rels[1], matches[2].Label)
		}
	case 4:
		switch {
		case isBetween:
			if !s.Policy.between(boxes[0], boxes[2], boxes[3]) || !s.Policy.between(boxes[1], boxes[2], boxes[3]) {
				return v.fail("%s and %s are not between %s and %s", matches[0].Label, matches[1].Label, matches[2].Label, matches[3].Label)
			}
		case len(rels) < 2:
			return v.fail("four objects need two relations")
		case !check(0, rels[0], 2) || !check(1, rels[0], 2):
			return v.fail("expected %s and %s %s %s", matches[0].Label, matches[1].Label, rels[0], matches[2].Label)
		case !check(0, rels[1], 3) || !check(1, rels[1], 3):
			return v.fail("expected %s and %s %s %s", matches[0].Label, matches[1].Label, rels[1], matches[3].Label)
		}
	default:
		return v.fail("unsupported object count %d", len(boxes))
	}

	v.Correct = true
	return v
}

// representativeBoxes returns one box per slot, or the label of the first
// slot that has no detection.
func representativeBoxes(matches []matcher.MatchResult) ([]detection.Box, string) {
	boxes := make([]detection.Box, len(matches))
	for i, m := range matches {
		d, ok := m.Representative()
		if !ok {
			return nil, m.Label
		}
		boxes[i] = d.Box
	}
	return boxes, ""
}
