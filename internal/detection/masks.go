package detection

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/logging"
)

var maskExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// LoadMasks builds the color-task detection table from a directory of
// per-instance mask files named <image stem>_<n>_<coco class id>.<ext>.
// The masks of one image are ordered by instance number n. Prompts without
// any mask file are left out of the table and are therefore scored as
// undetected.
func LoadMasks(dir string, records []dataset.PromptRecord) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read mask dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !maskExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	table := NewTable()
	for _, rec := range records {
		stem := ImageStem(rec)
		var matched []string
		for _, name := range names {
			if strings.HasPrefix(name, stem+"_") {
				matched = append(matched, name)
			}
		}
		sortByInstance(matched)

		var dets []Detection
		for _, name := range matched {
			classID, err := maskClassID(name)
			if err != nil {
				logging.LogWarn("masks: %v", err)
				continue
			}
			label, ok := CocoLabel(classID)
			if !ok {
				logging.LogWarn("masks: %s has unknown class id %d", name, classID)
				continue
			}
			dets = append(dets, Detection{
				Label: label,
				Mask:  &Mask{Path: filepath.Join(dir, name)},
			})
		}
		if len(dets) == 0 {
			continue
		}
		if err := table.Put(Record{ImageID: stem, Detections: dets}); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// maskClassID reads the class id from the last underscore-separated token.
func maskClassID(name string) (int, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return 0, fmt.Errorf("%w: mask %s has no class id", ErrMalformedEntry, name)
	}
	id, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: mask %s has no class id", ErrMalformedEntry, name)
	}
	return id, nil
}

// sortByInstance orders mask file names by their instance number, the token
// before the class id. Names without a numeric instance sort after the rest.
func sortByInstance(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, okA := maskInstance(names[i])
		b, okB := maskInstance(names[j])
		switch {
		case okA && okB && a != b:
			return a < b
		case okA != okB:
			return okA
		default:
			return names[i] < names[j]
		}
	})
}

func maskInstance(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return 0, false
	}
	base = base[:i]
	j := strings.LastIndexByte(base, '_')
	if j < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[j+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
