package detection

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/compbench/internal/dataset"
)

func TestBoxGeometry(t *testing.T) {
	b := Box{XMin: 10, YMin: 20, XMax: 30, YMax: 60}
	if b.Width() != 20 || b.Height() != 40 || b.Area() != 800 {
		t.Fatalf("unexpected geometry: w=%v h=%v a=%v", b.Width(), b.Height(), b.Area())
	}
	cx, cy := b.Center()
	if cx != 20 || cy != 40 {
		t.Fatalf("unexpected center (%v,%v)", cx, cy)
	}

	inverted := Box{XMin: 30, YMin: 60, XMax: 10, YMax: 20}
	if inverted.Valid() || inverted.Area() != 0 {
		t.Fatalf("inverted box should have zero area, got %v", inverted.Area())
	}

	overlap := b.Intersect(Box{XMin: 25, YMin: 0, XMax: 100, YMax: 30})
	if overlap.Area() != 50 {
		t.Fatalf("expected overlap area 50, got %v", overlap.Area())
	}
	if disjoint := b.Intersect(Box{XMin: 100, YMin: 100, XMax: 110, YMax: 110}); disjoint.Area() != 0 {
		t.Fatalf("expected empty intersection, got %+v", disjoint)
	}
}

func TestPromptIndexFromImageID(t *testing.T) {
	cases := map[string]int{
		"17_1_two_cats_and_a_dog": 17,
		"0":                       0,
		" 42_0_x ":                42,
	}
	for id, want := range cases {
		got, err := PromptIndexFromImageID(id)
		if err != nil {
			t.Fatalf("PromptIndexFromImageID(%q) error: %v", id, err)
		}
		if got != want {
			t.Fatalf("PromptIndexFromImageID(%q) = %d, want %d", id, got, want)
		}
	}
	for _, bad := range []string{"", "cat_1", "-3_0_x"} {
		if _, err := PromptIndexFromImageID(bad); !errors.Is(err, ErrMalformedEntry) {
			t.Fatalf("expected ErrMalformedEntry for %q, got %v", bad, err)
		}
	}
}

func TestImageStem(t *testing.T) {
	rec := dataset.PromptRecord{Index: 3, Level: 1, Prompt: "a red car and a blue bus"}
	if got := ImageStem(rec); got != "3_1_a_red_car_and_a_blue_bus" {
		t.Fatalf("unexpected stem %q", got)
	}
}

func TestTableDuplicatesAndOrphans(t *testing.T) {
	table := NewTable()
	_ = table.Put(Record{ImageID: "17_0_first", Detections: []Detection{{Label: "cat"}}})
	_ = table.Put(Record{ImageID: "17_0_second", Detections: []Detection{{Label: "dog"}}})
	_ = table.Put(Record{ImageID: "99_0_orphan"})
	if err := table.Put(Record{ImageID: "bogus"}); err == nil {
		t.Fatalf("expected error for unusable image id")
	}

	if table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", table.Len())
	}
	if table.Duplicates() != 1 || table.Skipped() != 1 {
		t.Fatalf("expected 1 duplicate and 1 skipped, got %d and %d", table.Duplicates(), table.Skipped())
	}
	rec, ok := table.Lookup(17)
	if !ok || rec.Detections[0].Label != "dog" {
		t.Fatalf("expected the later record to win, got %+v", rec)
	}
	if rec := table.Get("5_0_missing"); !rec.Empty() || rec.PromptIndex != 5 {
		t.Fatalf("expected empty record for missing id, got %+v", rec)
	}

	orphans := table.Orphans(func(i int) bool { return i == 17 })
	if len(orphans) != 1 || orphans[0] != "99_0_orphan" {
		t.Fatalf("unexpected orphans %v", orphans)
	}
}

func TestDecodeJSONEmpty(t *testing.T) {
	table, err := DecodeJSON(strings.NewReader("  \n"))
	if err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d records", table.Len())
	}
}

func TestDecodeJSONLines(t *testing.T) {
	input := `{"image_id":"0_0_one_cat","detections":[{"label":"cat","box":{"xmin":1,"ymin":2,"xmax":3,"ymax":4},"confidence":0.9}]}
{"image_id":"1_0_nothing","detections":[]}
`
	table, err := DecodeJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", table.Len())
	}
	rec, _ := table.Lookup(0)
	if len(rec.Detections) != 1 || rec.Detections[0].Box.XMax != 3 || rec.Detections[0].Confidence != 0.9 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec, ok := table.Lookup(1); !ok || !rec.Empty() {
		t.Fatalf("expected present but empty record 1, got %+v (ok=%v)", rec, ok)
	}
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"image_id":"4_2_a","detections":[{"label":"dog","box":{"xmin":0,"ymin":0,"xmax":5,"ymax":5}}]}]`
	table, err := DecodeJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if _, ok := table.Lookup(4); !ok {
		t.Fatalf("expected record 4")
	}
}

func TestDecodeJSONNestedMap(t *testing.T) {
	input := `{
  "2_0_two_cats": {
    "1": [["50", "0", "60", "10", "cat"]],
    "0": [["0", "0", "10", "10", "cat"], ["0", "0", "10", "10", "cat"]]
  },
  "10_1_dog": {"0": [[1, 1, 4, 4, 0.75, "dog"]]},
  "3_0_empty": {}
}`
	table, err := DecodeJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	rec, _ := table.Lookup(2)
	if len(rec.Detections) != 2 {
		t.Fatalf("expected one detection per object id, got %d", len(rec.Detections))
	}
	if rec.Detections[0].Box.XMin != 0 || rec.Detections[1].Box.XMin != 50 {
		t.Fatalf("expected object ids in numeric order, got %+v", rec.Detections)
	}
	dog, _ := table.Lookup(10)
	if dog.Detections[0].Label != "dog" || dog.Detections[0].Confidence != 0.75 {
		t.Fatalf("unexpected dog detection %+v", dog.Detections[0])
	}
	if empty, ok := table.Lookup(3); !ok || !empty.Empty() {
		t.Fatalf("expected empty record 3")
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	cases := []string{
		`"just a string"`,
		`{"0_0_x": {"0": [["a", "0", "1", "1", "cat"]]}}`,
		`{"0_0_x": {"0": [["0", "0", "1", "cat"]]}}`,
		`{"image_id": ""}`,
	}
	for _, input := range cases {
		if _, err := DecodeJSON(strings.NewReader(input)); err == nil {
			t.Fatalf("expected error for %s", input)
		}
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadMasks(t *testing.T) {
	dir := t.TempDir()
	records := []dataset.PromptRecord{
		{Index: 0, Level: 0, Prompt: "a red car"},
		{Index: 1, Level: 0, Prompt: "a blue bus"},
	}
	for _, name := range []string{
		"0_0_a_red_car_1_2.png",
		"0_0_a_red_car_0_2.png",
		"0_0_a_red_car_2_999.png",
		"0_0_a_red_car.txt",
		"7_0_unrelated_0_5.png",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	table, err := LoadMasks(dir, records)
	if err != nil {
		t.Fatalf("LoadMasks error: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected only prompt 0 in the table, got %d", table.Len())
	}
	rec, _ := table.Lookup(0)
	if len(rec.Detections) != 2 {
		t.Fatalf("expected 2 mask detections, got %d", len(rec.Detections))
	}
	if rec.Detections[0].Label != "car" || !strings.HasSuffix(rec.Detections[0].Mask.Path, "0_0_a_red_car_0_2.png") {
		t.Fatalf("unexpected first detection %+v", rec.Detections[0])
	}
	if _, ok := table.Lookup(1); ok {
		t.Fatalf("prompt without masks should be absent")
	}
}

func TestLoadMasksOrdersByInstanceNumber(t *testing.T) {
	dir := t.TempDir()
	records := []dataset.PromptRecord{{Index: 3, Level: 1, Prompt: "a green cup"}}
	for _, name := range []string{
		"3_1_a_green_cup_10_41.png",
		"3_1_a_green_cup_2_41.png",
		"3_1_a_green_cup_1_41.png",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	table, err := LoadMasks(dir, records)
	if err != nil {
		t.Fatalf("LoadMasks error: %v", err)
	}
	rec, ok := table.Lookup(3)
	if !ok || len(rec.Detections) != 3 {
		t.Fatalf("expected 3 mask detections, got %+v", rec)
	}
	for i, want := range []string{"_1_41.png", "_2_41.png", "_10_41.png"} {
		if !strings.HasSuffix(rec.Detections[i].Mask.Path, want) {
			t.Fatalf("detection %d: expected mask ending in %s, got %s", i, want, rec.Detections[i].Mask.Path)
		}
	}
}

func TestCocoLookup(t *testing.T) {
	if l, ok := CocoLabel(62); !ok || l != "tv" {
		t.Fatalf("expected tv for id 62, got %q", l)
	}
	if _, ok := CocoLabel(80); ok {
		t.Fatalf("id 80 should be out of range")
	}
	if id, ok := CocoClassID("toothbrush"); !ok || id != 79 {
		t.Fatalf("expected 79 for toothbrush, got %d", id)
	}
}
