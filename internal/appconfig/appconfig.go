// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/evaluator"
	"github.com/mwiater/compbench/internal/report"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is checked when the default path does not exist.
	legacyConfigPath = "compbench.json"

	defaultDatasetDir    = "data"
	defaultDetectionsDir = "detections"
	defaultImagesDir     = "images"
	defaultMasksDir      = "masks"
	defaultResultsDir    = "results"
	defaultLogFile       = "compbench.log"
)

// Config represents the top-level application configuration. Zero values fall
// back to the defaults returned by the accessor methods.
type Config struct {
	DatasetDir    string            `json:"datasetDir" mapstructure:"datasetDir"`
	Datasets      map[string]string `json:"datasets,omitempty" mapstructure:"datasets"`
	DetectionsDir string            `json:"detectionsDir" mapstructure:"detectionsDir"`
	Detections    map[string]string `json:"detections,omitempty" mapstructure:"detections"`
	ImagesDir     string            `json:"imagesDir" mapstructure:"imagesDir"`
	MasksDir      string            `json:"masksDir" mapstructure:"masksDir"`
	ResultsDir    string            `json:"resultsDir" mapstructure:"resultsDir"`
	ReportFormat  string            `json:"reportFormat" mapstructure:"reportFormat"`
	WriteVerdicts bool              `json:"writeVerdicts" mapstructure:"writeVerdicts"`
	Progress      bool              `json:"progress" mapstructure:"progress"`
	WorkerCount   int               `json:"workers,omitempty" mapstructure:"workers"`
	ExpectedSizes map[string]int    `json:"expectedSizes,omitempty" mapstructure:"expectedSizes"`
	LabelAliases  map[string]string `json:"labelAliases,omitempty" mapstructure:"labelAliases"`
	Spatial       SpatialConfig     `json:"spatial" mapstructure:"spatial"`
	Size          SizeConfig        `json:"size" mapstructure:"size"`
	Color         ColorConfig       `json:"color" mapstructure:"color"`
	Debug         bool              `json:"debug" mapstructure:"debug"`
	LogFile       string            `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath    string            `json:"-" mapstructure:"-"`
}

// SpatialConfig overrides the spatial classifier thresholds. Nil fields keep
// the defaults.
type SpatialConfig struct {
	DominanceRatio *float64 `json:"dominanceRatio,omitempty" mapstructure:"dominanceRatio"`
	InsideOverlap  *float64 `json:"insideOverlap,omitempty" mapstructure:"insideOverlap"`
}

// SizeConfig overrides the size comparison tolerance. An explicit 0 disables
// the same-size band.
type SizeConfig struct {
	AreaTolerance *float64 `json:"areaTolerance,omitempty" mapstructure:"areaTolerance"`
}

// HueBin is one entry of a custom hue table, in degrees.
type HueBin struct {
	Name  string  `json:"name" mapstructure:"name"`
	Upper float64 `json:"upper" mapstructure:"upper"`
}

// ColorConfig overrides the hue classifier.
type ColorConfig struct {
	HueBins       []HueBin `json:"hueBins,omitempty" mapstructure:"hueBins"`
	MinSaturation *float64 `json:"minSaturation,omitempty" mapstructure:"minSaturation"`
	Achromatic    bool     `json:"achromatic" mapstructure:"achromatic"`
}

// Workers returns the evaluation concurrency, defaulting to the CPU count.
func (c Config) Workers() int {
	if c.WorkerCount < 1 {
		return runtime.NumCPU()
	}
	return c.WorkerCount
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := strings.TrimSpace(c.LogFile); path != "" {
		return path
	}
	return defaultLogFile
}

// ResultsPath returns the directory reports are written to.
func (c Config) ResultsPath() string {
	return orDefault(c.ResultsDir, defaultResultsDir)
}

// ImagesPath returns the directory holding the generated images.
func (c Config) ImagesPath() string {
	return orDefault(c.ImagesDir, defaultImagesDir)
}

// MasksPath returns the directory holding the segmentation masks.
func (c Config) MasksPath() string {
	return orDefault(c.MasksDir, defaultMasksDir)
}

// DatasetPath returns the ground-truth file of a category: an explicit entry
// in Datasets, or <datasetDir>/<category>.jsonl.
func (c Config) DatasetPath(category dataset.Category) string {
	if p := strings.TrimSpace(c.Datasets[string(category)]); p != "" {
		return p
	}
	return filepath.Join(orDefault(c.DatasetDir, defaultDatasetDir), string(category)+".jsonl")
}

// DetectionsPath returns the detection table of a category: an explicit entry
// in Detections, or <detectionsDir>/<category>.json.
func (c Config) DetectionsPath(category dataset.Category) string {
	if p := strings.TrimSpace(c.Detections[string(category)]); p != "" {
		return p
	}
	return filepath.Join(orDefault(c.DetectionsDir, defaultDetectionsDir), string(category)+".json")
}

// Format returns the report format, defaulting to JSON.
func (c Config) Format() report.Format {
	f, err := report.ParseFormat(c.ReportFormat)
	if err != nil {
		return report.JSON
	}
	return f
}

// ExpectedSize returns the configured record count of a category, or 0.
func (c Config) ExpectedSize(category dataset.Category) int {
	return c.ExpectedSizes[string(category)]
}

// SpatialPolicy returns the spatial thresholds with defaults applied.
func (c Config) SpatialPolicy() evaluator.SpatialPolicy {
	p := evaluator.DefaultSpatialPolicy()
	if c.Spatial.DominanceRatio != nil {
		p.DominanceRatio = *c.Spatial.DominanceRatio
	}
	if c.Spatial.InsideOverlap != nil {
		p.InsideOverlap = *c.Spatial.InsideOverlap
	}
	return p
}

// SizePolicy returns the size tolerance with defaults applied.
func (c Config) SizePolicy() evaluator.SizePolicy {
	p := evaluator.DefaultSizePolicy()
	if c.Size.AreaTolerance != nil {
		p.AreaTolerance = *c.Size.AreaTolerance
	}
	return p
}

// ColorPolicy returns the hue table and saturation floor with defaults applied.
func (c Config) ColorPolicy() evaluator.ColorPolicy {
	p := evaluator.DefaultColorPolicy()
	if len(c.Color.HueBins) > 0 {
		p.Bins = make([]evaluator.HueBin, len(c.Color.HueBins))
		for i, b := range c.Color.HueBins {
			p.Bins[i] = evaluator.HueBin{Name: strings.ToLower(strings.TrimSpace(b.Name)), Upper: b.Upper}
		}
	}
	if c.Color.MinSaturation != nil {
		p.MinSaturation = *c.Color.MinSaturation
	}
	p.Achromatic = c.Color.Achromatic
	return p
}

// Policies bundles every evaluator policy.
func (c Config) Policies() evaluator.Policies {
	return evaluator.Policies{Spatial: c.SpatialPolicy(), Size: c.SizePolicy(), Color: c.ColorPolicy()}
}

// Validate reports configuration values that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		errs = append(errs, err)
	}
	for _, m := range []map[string]string{c.Datasets, c.Detections} {
		for name := range m {
			if _, err := dataset.ParseCategory(name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for name, n := range c.ExpectedSizes {
		if _, err := dataset.ParseCategory(name); err != nil {
			errs = append(errs, err)
		}
		if n < 0 {
			errs = append(errs, fmt.Errorf("expected size of %s must not be negative", name))
		}
	}
	if v := c.Spatial.DominanceRatio; v != nil && *v <= 0 {
		errs = append(errs, errors.New("spatial.dominanceRatio must be positive"))
	}
	if v := c.Spatial.InsideOverlap; v != nil && (*v <= 0 || *v > 1) {
		errs = append(errs, errors.New("spatial.insideOverlap must be within (0, 1]"))
	}
	if v := c.Size.AreaTolerance; v != nil && (*v < 0 || *v >= 1) {
		errs = append(errs, errors.New("size.areaTolerance must be within [0, 1)"))
	}
	if v := c.Color.MinSaturation; v != nil && (*v < 0 || *v >= 1) {
		errs = append(errs, errors.New("color.minSaturation must be within [0, 1)"))
	}
	prev := 0.0
	for i, b := range c.Color.HueBins {
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, fmt.Errorf("color.hueBins[%d] has no name", i))
		}
		if b.Upper <= prev {
			errs = append(errs, fmt.Errorf("color.hueBins[%d] upper bound %.1f must exceed %.1f", i, b.Upper, prev))
		}
		prev = b.Upper
	}
	if n := len(c.Color.HueBins); n > 0 && c.Color.HueBins[n-1].Upper < 360 {
		errs = append(errs, errors.New("color.hueBins must cover hues up to 360"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// ResolvePath returns the config file Load reads for path. An empty path
// means DefaultConfigPath; when that file is missing the legacy compbench.json
// in the working directory is used instead. A missing file yields an error
// wrapping os.ErrNotExist.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if path != DefaultConfigPath {
		return "", fmt.Errorf("no configuration file found at %q: %w", path, os.ErrNotExist)
	}
	if _, err := os.Stat(legacyConfigPath); err == nil {
		return legacyConfigPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("could not read config file %q: %w", legacyConfigPath, err)
	}
	return "", fmt.Errorf("no configuration file found (searched %q and %q): %w", DefaultConfigPath, legacyConfigPath, os.ErrNotExist)
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}
	config, err := loadFromPath(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file %q: %w", resolved, err)
	}
	config.ConfigPath = resolved
	return config, config.Validate()
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
