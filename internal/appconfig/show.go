package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"

	"github.com/mwiater/compbench/internal/dataset"
)

// ShowConfig prints the effective configuration. A nil cfg prints the defaults.
// In debug mode the raw struct is dumped as well.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	spatial, size, color := cfg.SpatialPolicy(), cfg.SizePolicy(), cfg.ColorPolicy()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Workers:         %d\n", cfg.Workers())
	fmt.Fprintf(out, "  Results Dir:     %s\n", cfg.ResultsPath())
	fmt.Fprintf(out, "  Report Format:   %s\n", cfg.Format())
	fmt.Fprintf(out, "  Write Verdicts:  %v\n", cfg.WriteVerdicts)
	fmt.Fprintf(out, "  Progress View:   %v\n", cfg.Progress)
	fmt.Fprintf(out, "  Images Dir:      %s\n", cfg.ImagesPath())
	fmt.Fprintf(out, "  Masks Dir:       %s\n", cfg.MasksPath())
	for _, c := range dataset.Categories {
		fmt.Fprintf(out, "  %-9s dataset: %s  detections: %s\n", c, cfg.DatasetPath(c), cfg.DetectionsPath(c))
	}
	fmt.Fprintf(out, "  Spatial:         dominance ratio %.2f, inside overlap %.2f\n", spatial.DominanceRatio, spatial.InsideOverlap)
	fmt.Fprintf(out, "  Size:            area tolerance %.3f\n", size.AreaTolerance)
	fmt.Fprintf(out, "  Color:           %d hue bins, min saturation %.2f, achromatic %v\n", len(color.Bins), color.MinSaturation, color.Achromatic)

	if cfg.Debug {
		fmt.Fprintln(out)
		pp.Fprintln(out, *cfg)
	}
}
