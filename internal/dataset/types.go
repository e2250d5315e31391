// Package dataset loads and indexes the ground-truth prompt records of the
// compositional benchmark, one JSONL file per category.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Category names one of the four benchmark tasks.
type Category string

const (
	Counting Category = "counting"
	Spatial  Category = "spatial"
	Size     Category = "size"
	Color    Category = "color"
)

// Categories lists every benchmark category in report order.
var Categories = []Category{Counting, Spatial, Size, Color}

var (
	// ErrUnknownCategory is returned when a category name is not part of the benchmark.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyDataset is returned when a dataset file holds no prompt records.
	ErrEmptyDataset = errors.New("dataset contains no records")
)

// ParseCategory resolves a case-insensitive category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Slot is one expected object position within a prompt record.
type Slot struct {
	Label         string `json:"label"`
	ExpectedCount int    `json:"expected_count"`
}

// PromptRecord is one ground-truth prompt. Only the fields relevant to its
// category are populated.
type PromptRecord struct {
	Index    int      `json:"index"`
	Category Category `json:"category"`
	Level    int      `json:"level"`
	Prompt   string   `json:"prompt"`
	Slots    []Slot   `json:"slots"`

	// Relations holds relation1/relation2 for spatial and size records.
	Relations []string `json:"relations,omitempty"`
	// Colors holds one color label per slot for color records.
	Colors []string `json:"colors,omitempty"`

	// Layout hints used only for generation.
	Phrases       []string    `json:"phrases,omitempty"`
	BoundingBoxes [][]float64 `json:"bounding_boxes,omitempty"`
}

// Labels returns the slot labels in slot order.
func (r PromptRecord) Labels() []string {
	labels := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		labels[i] = s.Label
	}
	return labels
}

// rawRecord mirrors one line of the published dataset files.
type rawRecord struct {
	Index         *int        `json:"index"`
	Prompt        string      `json:"prompt"`
	Phrases       []string    `json:"phrases"`
	BoundingBoxes [][]float64 `json:"bounding_boxes"`
	Level         int         `json:"level"`

	Obj1 string `json:"expected_obj1"`
	Obj2 string `json:"expected_obj2"`
	Obj3 string `json:"expected_obj3"`
	Obj4 string `json:"expected_obj4"`

	N1 int `json:"expected_n1"`
	N2 int `json:"expected_n2"`

	Relation1 string `json:"relation1"`
	Relation2 string `json:"relation2"`

	Color1 string `json:"color1"`
	Color2 string `json:"color2"`
	Color3 string `json:"color3"`
	Color4 string `json:"color4"`
}

func (r rawRecord) objects() []string {
	var objs []string
	for _, o := range []string{r.Obj1, r.Obj2, r.Obj3, r.Obj4} {
		if o = strings.TrimSpace(o); o != "" {
			objs = append(objs, o)
		}
	}
	return objs
}

// toRecord converts a raw line into a PromptRecord carrying only the fields of
// the given category.
func (r rawRecord) toRecord(index int, category Category) (PromptRecord, error) {
	rec := PromptRecord{
		Index:         index,
		Category:      category,
		Level:         r.Level,
		Prompt:        strings.TrimSpace(r.Prompt),
		Phrases:       r.Phrases,
		BoundingBoxes: r.BoundingBoxes,
	}

	switch category {
	case Counting:
		obj1 := strings.TrimSpace(r.Obj1)
		if obj1 == "" || r.N1 < 1 {
			return PromptRecord{}, fmt.Errorf("counting record needs expected_obj1 with expected_n1 >= 1")
		}
		rec.Slots = append(rec.Slots, Slot{Label: obj1, ExpectedCount: r.N1})
		if obj2 := strings.TrimSpace(r.Obj2); obj2 != "" && r.N2 > 0 {
			rec.Slots = append(rec.Slots, Slot{Label: obj2, ExpectedCount: r.N2})
		}

	case Spatial, Size:
		objs := r.objects()
		if len(objs) < 2 {
			return PromptRecord{}, fmt.Errorf("%s record needs at least two objects, got %d", category, len(objs))
		}
		for _, o := range objs {
			rec.Slots = append(rec.Slots, Slot{Label: o, ExpectedCount: 1})
		}
		for _, rel := range []string{r.Relation1, r.Relation2} {
			if rel = strings.TrimSpace(rel); rel != "" {
				rec.Relations = append(rec.Relations, rel)
			}
		}
		if len(rec.Relations) == 0 {
			return PromptRecord{}, fmt.Errorf("%s record has no relation", category)
		}

	case Color:
		objs := r.objects()
		if len(objs) < 2 {
			return PromptRecord{}, fmt.Errorf("color record needs at least two objects, got %d", len(objs))
		}
		colors := []string{strings.TrimSpace(r.Color1), strings.TrimSpace(r.Color2)}
		for _, c := range []string{r.Color3, r.Color4} {
			if c = strings.TrimSpace(c); c != "" {
				colors = append(colors, c)
			}
		}
		if len(colors) != len(objs) {
			return PromptRecord{}, fmt.Errorf("color record has %d objects but %d colors", len(objs), len(colors))
		}
		for i, o := range objs {
			if colors[i] == "" {
				return PromptRecord{}, fmt.Errorf("color record slot %d has no color", i)
			}
			rec.Slots = append(rec.Slots, Slot{Label: o, ExpectedCount: 1})
			rec.Colors = append(rec.Colors, strings.ToLower(colors[i]))
		}

	default:
		return PromptRecord{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	return rec, nil
}
