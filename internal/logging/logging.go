// Package logging routes the standard logger to stdout and an optional log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwiater/compbench/internal/util"
)

// maxReasonRunes caps the reason text of a verdict line.
const maxReasonRunes = 160

var (
	mu      sync.Mutex
	logFile *os.File
	quiet   bool
)

// Init directs log output to stdout and, when logPath is set, to an
// append-mode file at logPath. Parent directories are created as needed.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if !quiet {
		writers = append(writers, os.Stdout)
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// SetQuiet drops stdout from the writer set on the next Init. The progress
// view uses it so log lines do not tear the terminal rendering.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// Close flushes and releases the log file, restoring stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// LogEvent writes a formatted informational line.
func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogWarn writes a formatted line tagged as a warning.
func LogWarn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println("[WARN] " + msg)
}

// LogVerdict records the outcome of a single prompt record.
func LogVerdict(category string, index int, correct bool, reason string) {
	log.Println(buildVerdictMessage(category, index, correct, reason))
}

func buildVerdictMessage(category string, index int, correct bool, reason string) string {
	cat := strings.TrimSpace(category)
	if cat == "" {
		cat = "unknown"
	}
	parts := []string{"[VERDICT]"}
	parts = append(parts, fmt.Sprintf("category=%s", strings.ToLower(cat)))
	parts = append(parts, fmt.Sprintf("index=%d", index))
	parts = append(parts, fmt.Sprintf("correct=%t", correct))
	if reason = strings.TrimSpace(reason); reason != "" {
		parts = append(parts, fmt.Sprintf("reason=%q", util.TruncateRunes(reason, maxReasonRunes)))
	}
	return strings.Join(parts, " ")
}
