// Package aggregate folds per-record verdicts into a category accuracy report.
package aggregate

import (
	"sort"
	"sync"
	"time"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/evaluator"
)

// LevelStats is the accuracy of one difficulty level.
type LevelStats struct {
	Total    int     `json:"total" yaml:"total"`
	Correct  int     `json:"correct" yaml:"correct"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}

// SlotStats is the object-level accuracy of the color task.
type SlotStats struct {
	Total    int     `json:"total" yaml:"total"`
	Correct  int     `json:"correct" yaml:"correct"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}

// CountingStats are the instance-level detection scores of the counting task.
type CountingStats struct {
	TruePos   int     `json:"true_pos" yaml:"true_pos"`
	FalsePos  int     `json:"false_pos" yaml:"false_pos"`
	FalseNeg  int     `json:"false_neg" yaml:"false_neg"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
}

// AccuracyReport is the final result of one category run.
type AccuracyReport struct {
	RunID                  string               `json:"run_id" yaml:"run_id"`
	Category               dataset.Category     `json:"category" yaml:"category"`
	TotalRecordsConsidered int                  `json:"total_records_considered" yaml:"total_records_considered"`
	CorrectCount           int                  `json:"correct_count" yaml:"correct_count"`
	Accuracy               float64              `json:"accuracy" yaml:"accuracy"`
	Levels                 map[int]LevelStats   `json:"levels,omitempty" yaml:"levels,omitempty"`
	AverageLevelAccuracy   float64              `json:"average_level_accuracy" yaml:"average_level_accuracy"`
	Slots                  *SlotStats           `json:"slots,omitempty" yaml:"slots,omitempty"`
	Counting               *CountingStats       `json:"counting,omitempty" yaml:"counting,omitempty"`
	Undetected             int                  `json:"undetected" yaml:"undetected"`
	OrphanDetections       int                  `json:"orphan_detections" yaml:"orphan_detections"`
	DuplicatePrompts       int                  `json:"duplicate_prompts" yaml:"duplicate_prompts"`
	IndexGaps              []dataset.IndexRange `json:"index_gaps,omitempty" yaml:"index_gaps,omitempty"`
	IndexGapCount          int                  `json:"index_gap_count" yaml:"index_gap_count"`
	Verdicts               []evaluator.Verdict  `json:"verdicts,omitempty" yaml:"verdicts,omitempty"`
	GeneratedAt            time.Time            `json:"generated_at" yaml:"generated_at"`
}

// Aggregator accumulates verdicts. It is safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	category dataset.Category
	seen     map[int]bool
	verdicts []evaluator.Verdict
	ignored  int
}

// New returns an empty Aggregator for a category.
func New(category dataset.Category) *Aggregator {
	return &Aggregator{category: category, seen: make(map[int]bool)}
}

// Add records a verdict. A second verdict for an already seen index is
// ignored; it returns false in that case.
func (a *Aggregator) Add(v evaluator.Verdict) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addLocked(v)
}

func (a *Aggregator) addLocked(v evaluator.Verdict) bool {
	if a.seen[v.Index] {
		a.ignored++
		return false
	}
	a.seen[v.Index] = true
	a.verdicts = append(a.verdicts, v)
	return true
}

// Merge folds the verdicts of another aggregator into a.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil || other == a {
		return
	}
	other.mu.Lock()
	verdicts := make([]evaluator.Verdict, len(other.verdicts))
	copy(verdicts, other.verdicts)
	other.mu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range verdicts {
		a.addLocked(v)
	}
}

// Len returns the number of distinct records added.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.verdicts)
}

// Ignored returns how many repeated verdicts were dropped.
func (a *Aggregator) Ignored() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ignored
}

// Finalize computes the report. Verdicts are listed by ascending index.
func (a *Aggregator) Finalize() AccuracyReport {
	a.mu.Lock()
	verdicts := make([]evaluator.Verdict, len(a.verdicts))
	copy(verdicts, a.verdicts)
	a.mu.Unlock()

	sort.Slice(verdicts, func(i, j int) bool { return verdicts[i].Index < verdicts[j].Index })

	r := AccuracyReport{
		Category:               a.category,
		TotalRecordsConsidered: len(verdicts),
		Levels:                 make(map[int]LevelStats),
		Verdicts:               verdicts,
		GeneratedAt:            time.Now().UTC(),
	}

	var slots SlotStats
	var counts CountingStats
	for _, v := range verdicts {
		ls := r.Levels[v.Level]
		ls.Total++
		if v.Correct {
			r.CorrectCount++
			ls.Correct++
		}
		r.Levels[v.Level] = ls
		if v.Undetected {
			r.Undetected++
		}
		slots.Total += v.SlotsTotal
		slots.Correct += v.SlotsCorrect
		counts.TruePos += v.TruePos
		counts.FalsePos += v.FalsePos
		counts.FalseNeg += v.FalseNeg
	}
	r.Accuracy = ratio(r.CorrectCount, r.TotalRecordsConsidered)

	var levelSum float64
	for level, ls := range r.Levels {
		ls.Accuracy = ratio(ls.Correct, ls.Total)
		r.Levels[level] = ls
		levelSum += ls.Accuracy
	}
	if len(r.Levels) > 0 {
		r.AverageLevelAccuracy = levelSum / float64(len(r.Levels))
	}

	switch a.category {
	case dataset.Color:
		slots.Accuracy = ratio(slots.Correct, slots.Total)
		r.Slots = &slots
	case dataset.Counting:
		counts.Precision = ratio(counts.TruePos, counts.TruePos+counts.FalsePos)
		counts.Recall = ratio(counts.TruePos, counts.TruePos+counts.FalseNeg)
		if counts.Precision+counts.Recall > 0 {
			counts.F1 = 2 * counts.Precision * counts.Recall / (counts.Precision + counts.Recall)
		}
		r.Counting = &counts
	}
	return r
}

// ratio returns n/d, or 0 when d is 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
