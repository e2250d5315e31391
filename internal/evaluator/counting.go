package evaluator

import (
	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/matcher"
)

// Counting checks that every expected object appears exactly the expected
// number of times. There is no partial credit.
type Counting struct{}

// Category implements Evaluator.
func (Counting) Category() dataset.Category { return dataset.Counting }

// Evaluate implements Evaluator. Slots that share a label are compared as one
// group against their summed expected count.
func (Counting) Evaluate(rec dataset.PromptRecord, matches []matcher.MatchResult) Verdict {
	v := newVerdict(rec, dataset.Counting)
	if len(matches) == 0 {
		return v.fail("record has no slots")
	}

	var order []string
	expected := make(map[string]int)
	detected := make(map[string]int)
	for _, m := range matches {
		if _, seen := expected[m.Label]; !seen {
			order = append(order, m.Label)
		}
		expected[m.Label] += m.ExpectedCount
		detected[m.Label] = len(m.Assigned)
	}

	v.Correct = true
	for _, label := range order {
		n, pred := expected[label], detected[label]
		v.TruePos += min(n, pred)
		v.FalsePos += max(0, pred-n)
		v.FalseNeg += max(0, n-pred)
		if pred != n && v.Correct {
			v = v.fail("expected %d %s, detected %d", n, label, pred)
		}
	}
	return v
}
