// internal/commands/root.go
package compbench

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/compbench/internal/appconfig"
	"github.com/mwiater/compbench/internal/logging"
)

var (
	cfgFile       string
	configUsed    string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compbench",
	Short: "compbench scores generated images against a compositional prompt benchmark",
	Long: `compbench evaluates text-to-image output on four compositional skills:
object counting, spatial relations, relative size and object color. Detector
and segmenter output is matched against the ground-truth prompt records and
folded into per-category accuracy reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = configUsed
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		logging.SetQuiet(cfg.Progress || !cfg.Debug)
		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().Int("workers", 0, "concurrent record evaluations (0 = number of CPUs)")
	rootCmd.PersistentFlags().String("datasetDir", "", "directory holding <category>.jsonl ground-truth files")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("datasetDir", rootCmd.PersistentFlags().Lookup("datasetDir"))
}

// ensureConfigLoaded reads the config file named by --config, falling back to
// the legacy compbench.json when the default path is missing. A missing file
// is not an error; every setting has a default.
func ensureConfigLoaded() error {
	configUsed = ""
	path, err := appconfig.ResolvePath(cfgFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	configUsed = path
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	if currentConfig == nil {
		return &appconfig.Config{}
	}
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
