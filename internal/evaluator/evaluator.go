// Package evaluator scores one prompt record against its matched detections.
// There is one evaluator per benchmark category; each produces a Verdict.
package evaluator

import (
	"fmt"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/imagery"
	"github.com/mwiater/compbench/internal/matcher"
)

// Verdict is the outcome of scoring one prompt record.
type Verdict struct {
	Index    int              `json:"index" yaml:"index"`
	Level    int              `json:"level" yaml:"level"`
	Category dataset.Category `json:"category" yaml:"category"`
	Correct  bool             `json:"correct" yaml:"correct"`
	Reason   string           `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Slot-level totals, filled by the color evaluator.
	SlotsTotal   int `json:"slots_total,omitempty" yaml:"slots_total,omitempty"`
	SlotsCorrect int `json:"slots_correct,omitempty" yaml:"slots_correct,omitempty"`

	// Instance-level counts, filled by the counting evaluator.
	TruePos  int `json:"true_pos,omitempty" yaml:"true_pos,omitempty"`
	FalsePos int `json:"false_pos,omitempty" yaml:"false_pos,omitempty"`
	FalseNeg int `json:"false_neg,omitempty" yaml:"false_neg,omitempty"`

	Undetected bool `json:"undetected,omitempty" yaml:"undetected,omitempty"`
}

func newVerdict(rec dataset.PromptRecord, c dataset.Category) Verdict {
	return Verdict{Index: rec.Index, Level: rec.Level, Category: c}
}

func (v Verdict) fail(format string, args ...any) Verdict {
	v.Correct = false
	v.Reason = fmt.Sprintf(format, args...)
	return v
}

// Evaluator scores records of one category.
type Evaluator interface {
	Category() dataset.Category
	Evaluate(rec dataset.PromptRecord, matches []matcher.MatchResult) Verdict
}

// Policies bundles the tunable thresholds of every evaluator.
type Policies struct {
	Spatial SpatialPolicy
	Size    SizePolicy
	Color   ColorPolicy
}

// DefaultPolicies returns the documented default thresholds.
func DefaultPolicies() Policies {
	return Policies{
		Spatial: DefaultSpatialPolicy(),
		Size:    DefaultSizePolicy(),
		Color:   DefaultColorPolicy(),
	}
}

// New returns the evaluator for a category. images is only used by the color
// evaluator and may be nil for the others.
func New(c dataset.Category, p Policies, images imagery.Source) (Evaluator, error) {
	switch c {
	case dataset.Counting:
		return Counting{}, nil
	case dataset.Spatial:
		return Spatial{Policy: p.Spatial}, nil
	case dataset.Size:
		return Size{Policy: p.Size}, nil
	case dataset.Color:
		if images == nil {
			return nil, fmt.Errorf("color evaluator requires an image source")
		}
		return Color{Policy: p.Color, Images: images}, nil
	default:
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownCategory, c)
	}
}
