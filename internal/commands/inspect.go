// internal/commands/inspect.go
package compbench

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
)

// inspectCmd groups commands that load inputs without scoring them.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and summarize benchmark inputs without scoring",
}

var inspectDatasetCmd = &cobra.Command{
	Use:   "dataset <category>",
	Short: "Summarize a ground-truth dataset file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dataset.ParseCategory(args[0])
		if err != nil {
			return err
		}
		cfg := GetConfig()
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.DatasetPath(c)
		}
		store, err := dataset.Load(path, c, dataset.WithExpectedSize(cfg.ExpectedSize(c)))
		if err != nil {
			return err
		}
		printDatasetStats(cmd.OutOrStdout(), path, store)
		return nil
	},
}

var inspectDetectionsCmd = &cobra.Command{
	Use:   "detections <category>",
	Short: "Summarize a detection table against its dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dataset.ParseCategory(args[0])
		if err != nil {
			return err
		}
		cfg := *GetConfig()
		store, err := dataset.Load(cfg.DatasetPath(c), c, dataset.WithExpectedSize(cfg.ExpectedSize(c)))
		if err != nil {
			return err
		}
		override, _ := cmd.Flags().GetString("file")
		table, _, err := loadDetections(cfg, c, store, override)
		if err != nil {
			return err
		}
		printDetectionStats(cmd.OutOrStdout(), store, table)
		return nil
	},
}

func init() {
	inspectDatasetCmd.Flags().String("file", "", "dataset file to inspect (overrides the configured path)")
	inspectDetectionsCmd.Flags().String("file", "", "detection table to inspect (overrides the configured path)")
	inspectCmd.AddCommand(inspectDatasetCmd)
	inspectCmd.AddCommand(inspectDetectionsCmd)
	rootCmd.AddCommand(inspectCmd)
}

func printDatasetStats(out io.Writer, path string, store *dataset.Store) {
	stats := store.Stats()
	fmt.Fprintf(out, "Dataset:     %s\n", path)
	fmt.Fprintf(out, "Category:    %s\n", store.Category())
	fmt.Fprintf(out, "Lines:       %d\n", stats.Lines)
	fmt.Fprintf(out, "Records:     %d\n", stats.Records)
	fmt.Fprintf(out, "Duplicates:  %d %v\n", stats.DuplicateCount, stats.Duplicates)
	fmt.Fprintf(out, "Index gaps:  %d missing in %v\n", stats.GapCount, stats.Gaps)
	if stats.MissingTrailing > 0 {
		fmt.Fprintf(out, "Missing:     %d trailing records\n", stats.MissingTrailing)
	}
}

func printDetectionStats(out io.Writer, store *dataset.Store, table *detection.Table) {
	detected := 0
	for _, rec := range store.All() {
		if _, ok := table.Lookup(rec.Index); ok {
			detected++
		}
	}
	fmt.Fprintf(out, "Detection records: %d\n", table.Len())
	fmt.Fprintf(out, "Prompts covered:   %d/%d\n", detected, store.Len())
	fmt.Fprintf(out, "Orphans:           %v\n", table.Orphans(store.Has))
	fmt.Fprintf(out, "Duplicates:        %d\n", table.Duplicates())
	fmt.Fprintf(out, "Skipped entries:   %d\n", table.Skipped())
}
