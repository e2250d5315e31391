package evaluator

import (
	"fmt"
	"strings"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
	"github.com/mwiater/compbench/internal/imagery"
	"github.com/mwiater/compbench/internal/matcher"
)

// Color classifies the dominant hue under each slot's instance mask.
type Color struct {
	Policy ColorPolicy
	Images imagery.Source
}

// Category implements Evaluator.
func (Color) Category() dataset.Category { return dataset.Color }

func hasMask(d detection.Detection) bool { return d.Mask != nil }

// Evaluate implements Evaluator. The record is correct only when every slot's
// classified color equals its expected color. Slot totals are reported even
// for incorrect records.
func (c Color) Evaluate(rec dataset.PromptRecord, matches []matcher.MatchResult) Verdict {
	v := newVerdict(rec, dataset.Color)
	v.SlotsTotal = len(matches)
	if len(matches) == 0 {
		return v.fail("record has no slots")
	}

	var failures []string
	img, imgErr := c.Images.Image(rec)
	for i, m := range matches {
		expected := ""
		if i < len(rec.Colors) {
			expected = strings.ToLower(strings.TrimSpace(rec.Colors[i]))
		}
		rep, ok := m.Filter(hasMask).Representative()
		if !ok {
			failures = append(failures, fmt.Sprintf("no mask for %s", m.Label))
			continue
		}
		if imgErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", m.Label, imgErr))
			continue
		}
		mask, err := imagery.LoadMask(rep.Mask)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", m.Label, err))
			continue
		}
		got, ok := c.Policy.Classify(imagery.MaskedPixels(img, mask))
		if !ok {
			failures = append(failures, fmt.Sprintf("%s has no colored pixels", m.Label))
			continue
		}
		if got != expected {
			failures = append(failures, fmt.Sprintf("expected %s %s, got %s", expected, m.Label, got))
			continue
		}
		v.SlotsCorrect++
	}

	if len(failures) > 0 {
		return v.fail("%s", strings.Join(failures, "; "))
	}
	v.Correct = true
	return v
}
