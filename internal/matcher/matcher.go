// Package matcher assigns detections to the expected object slots of a prompt
// record by label.
package matcher

import (
	"strings"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
)

// DefaultAliases maps detector and dataset spellings onto one canonical label.
var DefaultAliases = map[string]string{
	"flat-screen tv": "tv",
	"flat screen tv": "tv",
	"person sitting": "person",
}

// MatchResult is the set of detections assigned to one slot.
type MatchResult struct {
	SlotIndex     int
	Label         string
	ExpectedCount int
	// Assigned keeps the detector's original order.
	Assigned []detection.Detection

	policy Policy
}

// Representative selects the single instance used for geometric and color
// comparisons. ok is false when the slot has no assigned detection.
func (r MatchResult) Representative() (detection.Detection, bool) {
	p := r.policy
	if p == nil {
		p = SelectRepresentative
	}
	return p(r.Assigned)
}

// Filter returns a copy of r holding only the assigned detections for which
// keep returns true.
func (r MatchResult) Filter(keep func(detection.Detection) bool) MatchResult {
	out := r
	out.Assigned = nil
	for _, d := range r.Assigned {
		if keep(d) {
			out.Assigned = append(out.Assigned, d)
		}
	}
	return out
}

// Policy picks a representative from a slot's assigned detections.
type Policy func(dets []detection.Detection) (detection.Detection, bool)

// SelectRepresentative returns the highest-confidence detection; ties go to
// the earliest detection in list order.
func SelectRepresentative(dets []detection.Detection) (detection.Detection, bool) {
	if len(dets) == 0 {
		return detection.Detection{}, false
	}
	best := 0
	for i := 1; i < len(dets); i++ {
		if dets[i].Confidence > dets[best].Confidence {
			best = i
		}
	}
	return dets[best], true
}

// Matcher partitions detections by normalized label.
type Matcher struct {
	aliases map[string]string
	policy  Policy
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithAliases adds label aliases on top of DefaultAliases. Keys and values are
// normalized before use.
func WithAliases(aliases map[string]string) Option {
	return func(m *Matcher) {
		for k, v := range aliases {
			m.aliases[basicNormalize(k)] = basicNormalize(v)
		}
	}
}

// WithPolicy replaces the representative selection policy.
func WithPolicy(p Policy) Option {
	return func(m *Matcher) {
		if p != nil {
			m.policy = p
		}
	}
}

// New returns a Matcher using DefaultAliases and SelectRepresentative.
func New(opts ...Option) *Matcher {
	m := &Matcher{aliases: make(map[string]string, len(DefaultAliases)), policy: SelectRepresentative}
	for k, v := range DefaultAliases {
		m.aliases[k] = v
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeLabel lower-cases, trims, replaces underscores with spaces and
// resolves aliases.
func (m *Matcher) NormalizeLabel(label string) string {
	n := basicNormalize(label)
	if alias, ok := m.aliases[n]; ok {
		return alias
	}
	return n
}

func basicNormalize(label string) string {
	n := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(label, "_", " ")))
	return strings.Join(strings.Fields(n), " ")
}

// Match returns one MatchResult per slot of rec, in slot order. Each slot
// receives every detection whose label equals the slot label, so slots that
// share a label see the same group. Detections with labels not named by any
// slot are ignored.
func (m *Matcher) Match(rec dataset.PromptRecord, dets []detection.Detection) []MatchResult {
	groups := make(map[string][]detection.Detection)
	for _, d := range dets {
		key := m.NormalizeLabel(d.Label)
		groups[key] = append(groups[key], d)
	}

	results := make([]MatchResult, len(rec.Slots))
	for i, slot := range rec.Slots {
		key := m.NormalizeLabel(slot.Label)
		results[i] = MatchResult{
			SlotIndex:     i,
			Label:         key,
			ExpectedCount: slot.ExpectedCount,
			Assigned:      groups[key],
			policy:        m.policy,
		}
	}
	return results
}
