// Package report writes accuracy reports to disk and renders them for the
// console.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwiater/compbench/internal/aggregate"
	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/util"
)

// Format selects the on-disk report encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat resolves a format name; the empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// Path returns <dir>/<category>_report.<format>.
func Path(dir string, category dataset.Category, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("%s_report.%s", category, format))
}

// Write encodes r into dir and returns the written path. The directory is
// created when missing.
func Write(dir string, r aggregate.AccuracyReport, format Format) (string, error) {
	var data []byte
	var err error
	switch format {
	case YAML:
		data, err = yaml.Marshal(r)
	case JSON, "":
		format = JSON
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("error encoding %s report: %w", r.Category, err)
	}

	path := Path(dir, r.Category, format)
	if err := util.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("error writing report: %w", err)
	}
	return path, nil
}

// Read loads a report previously written by Write, choosing the decoder from
// the file extension.
func Read(path string) (aggregate.AccuracyReport, error) {
	var r aggregate.AccuracyReport
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("error reading report: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return r, fmt.Errorf("error decoding report %s: %w", path, err)
	}
	return r, nil
}
