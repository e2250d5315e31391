package evaluator

import "strings"

// Relation is a symbolic spatial relation between two objects.
type Relation string

const (
	LeftOf   Relation = "left-of"
	RightOf  Relation = "right-of"
	Above    Relation = "above"
	Below    Relation = "below"
	Inside   Relation = "inside"
	Contains Relation = "contains"
	Between  Relation = "between"
	// NoRelation is the classification of coincident or ambiguous boxes.
	NoRelation Relation = "none"
)

var spatialWords = map[string]Relation{
	"left-of":          LeftOf,
	"left":             LeftOf,
	"left of":          LeftOf,
	"on the left of":   LeftOf,
	"to the left of":   LeftOf,
	"right-of":         RightOf,
	"right":            RightOf,
	"right of":         RightOf,
	"on the right of":  RightOf,
	"to the right of":  RightOf,
	"above":            Above,
	"on":               Above,
	"over":             Above,
	"top":              Above,
	"on top of":        Above,
	"on the top of":    Above,
	"below":            Below,
	"beneath":          Below,
	"under":            Below,
	"underneath":       Below,
	"inside":           Inside,
	"in":               Inside,
	"within":           Inside,
	"inside of":        Inside,
	"contains":         Contains,
	"containing":       Contains,
	"between":          Between,
	"in between":       Between,
	"in the middle of": Between,
}

// ParseRelation maps a raw relation phrase from the dataset onto the spatial
// vocabulary.
func ParseRelation(raw string) (Relation, bool) {
	r, ok := spatialWords[normalizePhrase(raw)]
	return r, ok
}

// Inverse returns the relation that holds when the two objects are swapped.
func (r Relation) Inverse() Relation {
	switch r {
	case LeftOf:
		return RightOf
	case RightOf:
		return LeftOf
	case Above:
		return Below
	case Below:
		return Above
	case Inside:
		return Contains
	case Contains:
		return Inside
	default:
		return r
	}
}

// SizeRelation is a symbolic comparison of two areas.
type SizeRelation string

const (
	Larger  SizeRelation = "larger"
	Smaller SizeRelation = "smaller"
	// SameSize is reported when the areas differ by no more than the tolerance.
	SameSize SizeRelation = "same"
)

var sizeWords = map[string]SizeRelation{
	"larger":       Larger,
	"bigger":       Larger,
	"larger than":  Larger,
	"bigger than":  Larger,
	"smaller":      Smaller,
	"smaller than": Smaller,
}

// ParseSizeRelation maps a raw size phrase onto Larger or Smaller.
func ParseSizeRelation(raw string) (SizeRelation, bool) {
	r, ok := sizeWords[normalizePhrase(raw)]
	return r, ok
}

// Inverse returns the comparison that holds when the two objects are swapped.
func (r SizeRelation) Inverse() SizeRelation {
	switch r {
	case Larger:
		return Smaller
	case Smaller:
		return Larger
	default:
		return r
	}
}

func normalizePhrase(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(raw, "_", " "))), " ")
}
