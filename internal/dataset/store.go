package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/mwiater/compbench/internal/logging"
)

// LoadStats describes the anomalies observed while loading a dataset file.
// Duplicates and gaps are known properties of the published data and never
// abort a load.
type LoadStats struct {
	Lines           int          `json:"lines"`
	Records         int          `json:"records"`
	DuplicateCount  int          `json:"duplicate_count"`
	Duplicates      []int        `json:"duplicates,omitempty"`
	Gaps            []IndexRange `json:"gaps,omitempty"`
	GapCount        int          `json:"gap_count"`
	MissingTrailing int          `json:"missing_trailing"`
}

// IndexRange is an inclusive run of missing prompt indices.
type IndexRange struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Len returns the number of indices in the range.
func (r IndexRange) Len() int { return r.To - r.From + 1 }

func (r IndexRange) String() string {
	if r.From == r.To {
		return strconv.Itoa(r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Store is the read-only index of one category's prompt records.
type Store struct {
	category     Category
	records      map[int]PromptRecord
	order        []int
	stats        LoadStats
	expectedSize int
}

// Option customizes loading.
type Option func(*Store)

// WithExpectedSize declares how many records the category should hold so that
// missing trailing entries can be reported.
func WithExpectedSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.expectedSize = n
		}
	}
}

// Load reads a category's JSONL dataset file.
func Load(path string, category Category, opts ...Option) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening dataset %s: %w", path, err)
	}
	defer file.Close()

	store, err := Parse(file, category, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading dataset %s: %w", path, err)
	}
	return store, nil
}

// Parse reads JSONL prompt records from r. Each non-blank line is validated
// against the category schema; any invalid line fails the whole load.
func Parse(r io.Reader, category Category, opts ...Option) (*Store, error) {
	schema, err := schemaFor(category)
	if err != nil {
		return nil, err
	}

	store := &Store{
		category: category,
		records:  make(map[int]PromptRecord),
	}
	for _, opt := range opts {
		opt(store)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	ordinal := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		store.stats.Lines++

		prefix, doc, hasPrefix := splitIndexPrefix(line)
		if err := validateLine(schema, doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		var raw rawRecord
		if err := json.Unmarshal(doc, &raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		index := ordinal
		switch {
		case raw.Index != nil:
			index = *raw.Index
		case hasPrefix:
			index = prefix
		}
		ordinal++

		rec, err := raw.toRecord(index, category)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		store.add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(store.records) == 0 {
		return nil, ErrEmptyDataset
	}

	store.finish()
	return store, nil
}

// add keeps the first occurrence of each index and counts later ones.
func (s *Store) add(rec PromptRecord) {
	if _, exists := s.records[rec.Index]; exists {
		s.stats.DuplicateCount++
		s.stats.Duplicates = append(s.stats.Duplicates, rec.Index)
		logging.LogWarn("dataset %s: duplicate prompt index %d ignored (first occurrence kept)", s.category, rec.Index)
		return
	}
	s.records[rec.Index] = rec
	s.order = append(s.order, rec.Index)
}

func (s *Store) finish() {
	sort.Ints(s.order)
	s.stats.Records = len(s.order)

	// One range per run of missing indices between present ones.
	next := 0
	for _, idx := range s.order {
		if idx > next {
			gap := IndexRange{From: next, To: idx - 1}
			s.stats.Gaps = append(s.stats.Gaps, gap)
			s.stats.GapCount += gap.Len()
		}
		next = idx + 1
	}
	maxIndex := s.order[len(s.order)-1]
	if s.expectedSize > maxIndex+1 {
		s.stats.MissingTrailing = s.expectedSize - (maxIndex + 1)
	}
	if s.stats.GapCount > 0 || s.stats.MissingTrailing > 0 {
		logging.LogWarn("dataset %s: %d missing indices in %d gaps, %d missing trailing entries", s.category, s.stats.GapCount, len(s.stats.Gaps), s.stats.MissingTrailing)
	}
}

// Category returns the category of the store.
func (s *Store) Category() Category { return s.category }

// Get returns the record with the given index.
func (s *Store) Get(index int) (PromptRecord, bool) {
	rec, ok := s.records[index]
	return rec, ok
}

// Has reports whether a record with the given index exists.
func (s *Store) Has(index int) bool {
	_, ok := s.records[index]
	return ok
}

// All returns every unique record in ascending index order.
func (s *Store) All() []PromptRecord {
	out := make([]PromptRecord, 0, len(s.order))
	for _, idx := range s.order {
		out = append(out, s.records[idx])
	}
	return out
}

// Len returns the number of unique records.
func (s *Store) Len() int { return len(s.order) }

// Stats returns the load statistics.
func (s *Store) Stats() LoadStats { return s.stats }

// splitIndexPrefix separates an optional leading integer token from the JSON
// document of a line, e.g. "17\t{...}".
func splitIndexPrefix(line []byte) (int, []byte, bool) {
	if len(line) == 0 || line[0] < '0' || line[0] > '9' {
		return 0, line, false
	}
	end := 0
	for end < len(line) && line[end] >= '0' && line[end] <= '9' {
		end++
	}
	rest := bytes.TrimLeft(line[end:], " \t:,")
	if len(rest) == 0 || rest[0] != '{' {
		return 0, line, false
	}
	n, err := strconv.Atoi(string(line[:end]))
	if err != nil {
		return 0, line, false
	}
	return n, rest, true
}
