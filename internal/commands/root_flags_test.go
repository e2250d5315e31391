package compbench

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/mwiater/compbench/internal/appconfig"
	"github.com/mwiater/compbench/internal/logging"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func resetEvaluateFlags() {
	for _, name := range []string{"dataset", "detections", "images", "masks", "output", "format", "verdicts", "progress"} {
		flag := evaluateCmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func useConfig(t *testing.T, configPath string) {
	t.Helper()
	prevCfgFile := cfgFile
	cfgFile = configPath
	viper.SetConfigFile(configPath)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
	})
	t.Cleanup(func() { _ = logging.Close() })
	for _, name := range []string{"debug", "logFile", "workers", "datasetDir"} {
		resetFlag(name)
	}
	resetEvaluateFlags()
	t.Cleanup(resetEvaluateFlags)
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "compbench.log")
	useConfig(t, writeTempConfig(t, `{"resultsDir": "out", "reportFormat": "yaml"}`))

	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("workers", "3")
	_ = rootCmd.PersistentFlags().Set("datasetDir", "fixtures")
	_ = rootCmd.PersistentFlags().Set("logFile", logPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != cfgFile {
		t.Fatalf("expected config loaded with path %s", cfgFile)
	}
	if !currentConfig.Debug || currentConfig.Workers() != 3 {
		t.Fatalf("expected flag values to flow into config: %+v", currentConfig)
	}
	if currentConfig.DatasetDir != "fixtures" || currentConfig.LogFilePath() != logPath {
		t.Fatalf("unexpected paths: dataset=%s log=%s", currentConfig.DatasetDir, currentConfig.LogFilePath())
	}
	if currentConfig.ResultsPath() != "out" || currentConfig.Format() != "yaml" {
		t.Fatalf("expected file values to survive: results=%s format=%s", currentConfig.ResultsPath(), currentConfig.Format())
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestPersistentPreRunEInvalidConfig(t *testing.T) {
	useConfig(t, writeTempConfig(t, `{"reportFormat": "xml", "spatial": {"insideOverlap": 2}}`))
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "compbench.log"))

	err := rootCmd.PersistentPreRunE(rootCmd, []string{})
	if err == nil {
		t.Fatalf("expected error for invalid configuration")
	}
	if !strings.Contains(err.Error(), "insideOverlap") {
		t.Fatalf("expected every problem to be reported, got %v", err)
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath := writeTempConfig(t, `{"workers": 5}`)
	useConfig(t, configPath)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--logFile", filepath.Join(t.TempDir(), "compbench.log"), "show", "config"})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	_, err := rootCmd.ExecuteC()
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config path in output, got %q", out)
	}
	if !strings.Contains(out, "Workers:         5") {
		t.Fatalf("expected worker count in output, got %q", out)
	}
}

func TestPersistentPreRunEFallsBackToLegacyConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "compbench.json"), []byte(`{"resultsDir": "legacy"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	useConfig(t, appconfig.DefaultConfigPath)
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "compbench.log"))

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}
	if currentConfig.ConfigPath != "compbench.json" || currentConfig.ResultsPath() != "legacy" {
		t.Fatalf("expected legacy config, got path=%q results=%q", currentConfig.ConfigPath, currentConfig.ResultsPath())
	}
}
