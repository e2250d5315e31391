// internal/commands/evaluate.go
package compbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/compbench/internal/aggregate"
	"github.com/mwiater/compbench/internal/appconfig"
	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/detection"
	"github.com/mwiater/compbench/internal/engine"
	"github.com/mwiater/compbench/internal/evaluator"
	"github.com/mwiater/compbench/internal/imagery"
	"github.com/mwiater/compbench/internal/logging"
	"github.com/mwiater/compbench/internal/matcher"
	"github.com/mwiater/compbench/internal/report"
	"github.com/mwiater/compbench/internal/tui"
)

// categoryInputs are per-run path overrides that only make sense for a single
// category.
type categoryInputs struct {
	datasetPath    string
	detectionsPath string
}

// evaluateCmd implements 'evaluate <category>|all'.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <counting|spatial|size|color|all>",
	Short: "Score detector output for one category or all of them",
	Long: `Loads the ground-truth prompts and the detection table of a category,
scores every prompt, prints a summary and writes <category>_report.<format> to
the results directory. Color runs read per-instance masks from the masks
directory and generated images from the images directory unless an explicit
detection table is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := resolveCategories(args[0])
		if err != nil {
			return err
		}

		in := categoryInputs{}
		in.datasetPath, _ = cmd.Flags().GetString("dataset")
		in.detectionsPath, _ = cmd.Flags().GetString("detections")
		if len(cats) > 1 && (in.datasetPath != "" || in.detectionsPath != "") {
			return errors.New("--dataset and --detections require a single category")
		}

		cfg := *GetConfig()
		var reports []aggregate.AccuracyReport
		var errs []error
		for _, c := range cats {
			r, err := runCategory(cmd.Context(), cmd.ErrOrStderr(), cfg, c, in)
			if err != nil {
				logging.LogWarn("%s: %v", c, err)
				errs = append(errs, fmt.Errorf("%s: %w", c, err))
				continue
			}
			reports = append(reports, r)
		}
		report.Render(cmd.OutOrStdout(), reports)
		return errors.Join(errs...)
	},
}

func init() {
	evaluateCmd.Flags().String("dataset", "", "ground-truth JSONL file (overrides the configured dataset)")
	evaluateCmd.Flags().String("detections", "", "detection table JSON/JSONL file (overrides the configured table)")
	evaluateCmd.Flags().String("images", "", "directory of generated images for the color task")
	evaluateCmd.Flags().String("masks", "", "directory of segmentation masks for the color task")
	evaluateCmd.Flags().StringP("output", "o", "", "results directory")
	evaluateCmd.Flags().String("format", "", "report format: json or yaml")
	evaluateCmd.Flags().Bool("verdicts", false, "also write <category>_verdicts.jsonl")
	evaluateCmd.Flags().Bool("progress", false, "show a live progress view")

	_ = viper.BindPFlag("imagesDir", evaluateCmd.Flags().Lookup("images"))
	_ = viper.BindPFlag("masksDir", evaluateCmd.Flags().Lookup("masks"))
	_ = viper.BindPFlag("resultsDir", evaluateCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("reportFormat", evaluateCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("writeVerdicts", evaluateCmd.Flags().Lookup("verdicts"))
	_ = viper.BindPFlag("progress", evaluateCmd.Flags().Lookup("progress"))

	rootCmd.AddCommand(evaluateCmd)
}

func resolveCategories(arg string) ([]dataset.Category, error) {
	if strings.EqualFold(strings.TrimSpace(arg), "all") {
		return dataset.Categories, nil
	}
	c, err := dataset.ParseCategory(arg)
	if err != nil {
		return nil, err
	}
	return []dataset.Category{c}, nil
}

// runCategory loads, scores and writes one category.
func runCategory(ctx context.Context, progressOut io.Writer, cfg appconfig.Config, c dataset.Category, in categoryInputs) (aggregate.AccuracyReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	datasetPath := in.datasetPath
	if datasetPath == "" {
		datasetPath = cfg.DatasetPath(c)
	}
	store, err := dataset.Load(datasetPath, c, dataset.WithExpectedSize(cfg.ExpectedSize(c)))
	if err != nil {
		return aggregate.AccuracyReport{}, err
	}

	table, images, err := loadDetections(cfg, c, store, in.detectionsPath)
	if err != nil {
		return aggregate.AccuracyReport{}, err
	}

	ev, err := evaluator.New(c, cfg.Policies(), images)
	if err != nil {
		return aggregate.AccuracyReport{}, err
	}

	opts := engine.Options{Workers: cfg.Workers()}
	var verdicts *report.VerdictLog
	if cfg.WriteVerdicts {
		verdicts, err = report.OpenVerdictLog(cfg.ResultsPath(), c)
		if err != nil {
			return aggregate.AccuracyReport{}, err
		}
		opts.OnVerdict = verdicts.Append
	}

	inputs := engine.Inputs{
		Store:      store,
		Detections: table,
		Evaluator:  ev,
		Matcher:    matcher.New(matcher.WithAliases(cfg.LabelAliases)),
	}
	var result aggregate.AccuracyReport
	run := func(progress func(done, total int)) error {
		opts.Progress = progress
		var runErr error
		result, runErr = engine.Run(ctx, inputs, opts)
		return runErr
	}
	if cfg.Progress {
		err = tui.Run(ctx, progressOut, string(c), run)
	} else {
		err = run(nil)
	}
	if verdicts != nil {
		if closeErr := verdicts.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return aggregate.AccuracyReport{}, err
	}

	path, err := report.Write(cfg.ResultsPath(), result, cfg.Format())
	if err != nil {
		return aggregate.AccuracyReport{}, err
	}
	logging.LogEvent("wrote %s report to %s", c, path)
	return result, nil
}

// loadDetections returns the detection table of a category and, for color,
// the image source. Color uses the mask directory unless an explicit table is
// configured.
func loadDetections(cfg appconfig.Config, c dataset.Category, store *dataset.Store, override string) (*detection.Table, imagery.Source, error) {
	if c != dataset.Color {
		path := override
		if path == "" {
			path = cfg.DetectionsPath(c)
		}
		table, err := detection.LoadJSON(path)
		return table, nil, err
	}

	images := imagery.FileSource{Dir: cfg.ImagesPath()}
	path := override
	if path == "" {
		path = strings.TrimSpace(cfg.Detections[string(c)])
	}
	if path != "" {
		table, err := detection.LoadJSON(path)
		return table, images, err
	}
	table, err := detection.LoadMasks(cfg.MasksPath(), store.All())
	return table, images, err
}
