package detection

import (
	"sort"
	"strconv"

	"github.com/mwiater/compbench/internal/logging"
)

// Table holds the parsed detection records of one evaluation run, keyed by
// prompt index.
type Table struct {
	records    map[int]Record
	duplicates int
	skipped    int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{records: make(map[int]Record)}
}

// Put stores a record. The prompt index is derived from the image id; a later
// record for the same index replaces the earlier one.
func (t *Table) Put(rec Record) error {
	idx, err := PromptIndexFromImageID(rec.ImageID)
	if err != nil {
		t.skipped++
		logging.LogWarn("detections: skipping entry: %v", err)
		return err
	}
	rec.PromptIndex = idx
	if prev, exists := t.records[idx]; exists {
		t.duplicates++
		logging.LogWarn("detections: duplicate image_id for prompt %d (%q replaced by %q)", idx, prev.ImageID, rec.ImageID)
	}
	t.records[idx] = rec
	return nil
}

// Get returns the record for an image id. Absent or unparseable ids yield an
// empty record so callers score them as undetected.
func (t *Table) Get(imageID string) Record {
	idx, err := PromptIndexFromImageID(imageID)
	if err != nil {
		return Record{ImageID: imageID}
	}
	rec, ok := t.records[idx]
	if !ok {
		return Record{ImageID: imageID, PromptIndex: idx}
	}
	return rec
}

// Lookup returns the record for a prompt index and whether it was present.
// The returned record is empty when absent.
func (t *Table) Lookup(index int) (Record, bool) {
	rec, ok := t.records[index]
	if !ok {
		return Record{ImageID: strconv.Itoa(index), PromptIndex: index}, false
	}
	return rec, true
}

// Len returns the number of stored records.
func (t *Table) Len() int { return len(t.records) }

// Duplicates returns how many records were replaced by a later entry.
func (t *Table) Duplicates() int { return t.duplicates }

// Skipped returns how many entries had an unusable image id.
func (t *Table) Skipped() int { return t.skipped }

// Records returns every record ordered by prompt index.
func (t *Table) Records() []Record {
	keys := make([]int, 0, len(t.records))
	for k := range t.records {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.records[k])
	}
	return out
}

// Orphans returns the image ids whose prompt index is not known.
func (t *Table) Orphans(known func(int) bool) []string {
	var out []string
	for _, rec := range t.Records() {
		if !known(rec.PromptIndex) {
			out = append(out, rec.ImageID)
		}
	}
	return out
}
