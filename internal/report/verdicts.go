package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mwiater/compbench/internal/dataset"
	"github.com/mwiater/compbench/internal/evaluator"
)

// VerdictPath returns <dir>/<category>_verdicts.jsonl.
func VerdictPath(dir string, category dataset.Category) string {
	return filepath.Join(dir, fmt.Sprintf("%s_verdicts.jsonl", category))
}

// VerdictLog appends verdicts as JSON lines. It is safe for concurrent use.
type VerdictLog struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	err     error
}

// OpenVerdictLog creates or truncates the verdict log of a category.
func OpenVerdictLog(dir string, category dataset.Category) (*VerdictLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating results directory: %w", err)
	}
	file, err := os.OpenFile(VerdictPath(dir, category), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening verdict log: %w", err)
	}
	return &VerdictLog{file: file, encoder: json.NewEncoder(file)}, nil
}

// Append writes one verdict. The first write error is kept and returned by
// Close; later verdicts are dropped.
func (l *VerdictLog) Append(v evaluator.Verdict) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return
	}
	if err := l.encoder.Encode(v); err != nil {
		l.err = fmt.Errorf("error writing verdict: %w", err)
	}
}

// Close flushes the log and reports the first write error, if any.
func (l *VerdictLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	closeErr := l.file.Close()
	if l.err != nil {
		return l.err
	}
	return closeErr
}
