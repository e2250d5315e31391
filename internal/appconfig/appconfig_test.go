// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/report"
)

// TestLoad checks that a valid file is loaded and that overrides replace the
// documented defaults.
func TestLoad(t *testing.T) {
	validConfig := `{
        "datasetDir": "bench/data",
        "detections": {"spatial": "out/spatial_boxes.json"},
        "reportFormat": "yaml",
        "workers": 3,
        "spatial": {"insideOverlap": 0.8},
        "color": {"hueBins": [{"name": "Red", "upper": 180}, {"name": "blue", "upper": 360}]},
        "logFile": "bench.log"
    }`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(validConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected config path %q, got %q", path, cfg.ConfigPath)
	}
	if got := cfg.DatasetPath(dataset.Counting); got != filepath.Join("bench/data", "counting.jsonl") {
		t.Fatalf("unexpected dataset path %q", got)
	}
	if got := cfg.DetectionsPath(dataset.Spatial); got != "out/spatial_boxes.json" {
		t.Fatalf("unexpected spatial detections path %q", got)
	}
	if got := cfg.DetectionsPath(dataset.Size); got != filepath.Join("detections", "size.json") {
		t.Fatalf("unexpected size detections path %q", got)
	}
	if cfg.Format() != report.YAML || cfg.Workers() != 3 || cfg.LogFilePath() != "bench.log" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	sp := cfg.SpatialPolicy()
	if sp.InsideOverlap != 0.8 || sp.DominanceRatio != 1.0 {
		t.Fatalf("unexpected spatial policy %+v", sp)
	}
	cp := cfg.ColorPolicy()
	if len(cp.Bins) != 2 || cp.Bins[0].Name != "red" || cp.MinSaturation != 0.15 {
		t.Fatalf("unexpected color policy %+v", cp)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"workers": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(invalid); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}

	badValues := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badValues, []byte(`{"reportFormat": "xml", "size": {"areaTolerance": 2}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(badValues); err == nil || !strings.Contains(err.Error(), "areaTolerance") {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadLegacyFallback(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "compbench.json"), []byte(`{"resultsDir": "legacy"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ResultsPath() != "legacy" {
		t.Fatalf("expected legacy results dir, got %q", cfg.ResultsPath())
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.Workers() != runtime.NumCPU() {
		t.Fatalf("expected NumCPU workers, got %d", cfg.Workers())
	}
	if cfg.LogFilePath() != "compbench.log" || cfg.ResultsPath() != "results" {
		t.Fatalf("unexpected defaults %q %q", cfg.LogFilePath(), cfg.ResultsPath())
	}
	if cfg.SizePolicy().AreaTolerance != 0.01 {
		t.Fatalf("unexpected default tolerance %v", cfg.SizePolicy().AreaTolerance)
	}
	if cfg.Format() != report.JSON {
		t.Fatalf("expected json default format")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should be valid: %v", err)
	}
}

func TestValidateRejectsBadHueTable(t *testing.T) {
	cfg := Config{Color: ColorConfig{HueBins: []HueBin{{Name: "red", Upper: 90}, {Name: "", Upper: 60}}}}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"has no name", "must exceed", "up to 360"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	cfg = Config{Datasets: map[string]string{"shape": "x.jsonl"}}
	if err := cfg.Validate(); !errors.Is(err, dataset.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	var out bytes.Buffer
	ShowConfig(&out, "", nil)
	if !strings.Contains(out.String(), "No config file loaded") || !strings.Contains(out.String(), "counting.jsonl") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	ShowConfig(&out, "config/config.json", &Config{Debug: true, ResultsDir: "r"})
	if !strings.Contains(out.String(), "Config file: config/config.json") || !strings.Contains(out.String(), "ResultsDir") {
		t.Fatalf("debug output should include the struct dump:\n%s", out.String())
	}
}

func TestExplicitZeroThresholdsAreKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"size": {"areaTolerance": 0}, "color": {"minSaturation": 0}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := cfg.SizePolicy().AreaTolerance; got != 0 {
		t.Fatalf("expected explicit zero tolerance, got %v", got)
	}
	if got := cfg.ColorPolicy().MinSaturation; got != 0 {
		t.Fatalf("expected explicit zero saturation floor, got %v", got)
	}
	if got := cfg.SpatialPolicy().InsideOverlap; got != 0.9 {
		t.Fatalf("expected default inside overlap when unset, got %v", got)
	}
}

func TestValidateRejectsZeroSpatialThresholds(t *testing.T) {
	zero := 0.0
	cfg := Config{Spatial: SpatialConfig{DominanceRatio: &zero, InsideOverlap: &zero}}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"dominanceRatio", "insideOverlap"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
