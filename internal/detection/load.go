package detection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadJSON reads a detection table from a JSON or JSONL file.
func LoadJSON(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening detections %s: %w", path, err)
	}
	defer file.Close()

	table, err := DecodeJSON(file)
	if err != nil {
		return nil, fmt.Errorf("error loading detections %s: %w", path, err)
	}
	return table, nil
}

// DecodeJSON reads a detection table. Three layouts are accepted:
//
//   - JSONL, one {"image_id": ..., "detections": [...]} object per line
//   - a JSON array of such objects
//   - the nested map exported from the detector pickles:
//     {"<image_id>": {"<obj_id>": [["xmin","ymin","xmax","ymax","label"]]}}
//
// An empty input yields an empty table.
func DecodeJSON(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	data = bytes.TrimSpace(data)
	table := NewTable()
	if len(data) == 0 {
		return table, nil
	}

	switch data[0] {
	case '[':
		var recs []Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("parse detection array: %w", err)
		}
		for _, rec := range recs {
			_ = table.Put(rec)
		}
		return table, nil
	case '{':
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrMalformedEntry, data[0])
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var first map[string]json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return nil, fmt.Errorf("parse detections: %w", err)
	}
	if _, ok := first["image_id"]; ok {
		return decodeRecordStream(data, table)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: multiple documents without image_id", ErrMalformedEntry)
	}
	return decodeNestedMap(first, table)
}

func decodeRecordStream(data []byte, table *Table) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	n := 0
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		n++
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		if strings.TrimSpace(rec.ImageID) == "" {
			return nil, fmt.Errorf("record %d: %w: missing image_id", n, ErrMalformedEntry)
		}
		_ = table.Put(rec)
	}
	return table, nil
}

func decodeNestedMap(images map[string]json.RawMessage, table *Table) (*Table, error) {
	imageIDs := make([]string, 0, len(images))
	for id := range images {
		imageIDs = append(imageIDs, id)
	}
	sortIDs(imageIDs)

	for _, imageID := range imageIDs {
		var objects map[string]json.RawMessage
		if err := json.Unmarshal(images[imageID], &objects); err != nil {
			return nil, fmt.Errorf("image %s: %w", imageID, err)
		}
		objIDs := make([]string, 0, len(objects))
		for id := range objects {
			objIDs = append(objIDs, id)
		}
		sortIDs(objIDs)

		rec := Record{ImageID: imageID, Detections: make([]Detection, 0, len(objIDs))}
		for _, objID := range objIDs {
			row, ok, err := firstRow(objects[objID])
			if err != nil {
				return nil, fmt.Errorf("image %s object %s: %w", imageID, objID, err)
			}
			if !ok {
				continue
			}
			det, err := parseRow(row)
			if err != nil {
				return nil, fmt.Errorf("image %s object %s: %w", imageID, objID, err)
			}
			rec.Detections = append(rec.Detections, det)
		}
		_ = table.Put(rec)
	}
	return table, nil
}

// firstRow accepts either a list of rows or a single row and returns the
// first row. Repeated rows for one object id are duplicates of the same
// instance.
func firstRow(raw json.RawMessage) ([]any, bool, error) {
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) == 0 {
			return nil, false, nil
		}
		return rows[0], true, nil
	}
	var row []any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if len(row) == 0 {
		return nil, false, nil
	}
	return row, true, nil
}

// parseRow converts [xmin, ymin, xmax, ymax, (confidence,) label].
func parseRow(row []any) (Detection, error) {
	if len(row) != 5 && len(row) != 6 {
		return Detection{}, fmt.Errorf("%w: expected 5 or 6 fields, got %d", ErrMalformedEntry, len(row))
	}
	label, ok := row[len(row)-1].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return Detection{}, fmt.Errorf("%w: missing label", ErrMalformedEntry)
	}
	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := toFloat(row[i])
		if err != nil {
			return Detection{}, err
		}
		coords[i] = v
	}
	det := Detection{
		Label: label,
		Box:   Box{XMin: coords[0], YMin: coords[1], XMax: coords[2], YMax: coords[3]},
	}
	if len(row) == 6 {
		conf, err := toFloat(row[4])
		if err != nil {
			return Detection{}, err
		}
		det.Confidence = conf
	}
	return det, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedEntry, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unexpected value %v", ErrMalformedEntry, v)
	}
}

// sortIDs orders numeric ids numerically and everything else lexically after them.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
