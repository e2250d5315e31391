package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "compbench.log")

	SetQuiet(true)
	t.Cleanup(func() { SetQuiet(false) })
	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogWarn("duplicate image_id %s", "3_1_a_dog")
	LogVerdict("spatial", 17, false, "slot 1 unsatisfied")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[WARN] duplicate image_id 3_1_a_dog") {
		t.Fatalf("expected LogWarn content, got: %s", content)
	}
	if !strings.Contains(content, "[VERDICT] category=spatial index=17 correct=false") {
		t.Fatalf("expected LogVerdict content, got: %s", content)
	}
}

func TestBuildVerdictMessageDefaults(t *testing.T) {
	msg := buildVerdictMessage(" ", 3, true, " ")
	if !strings.Contains(msg, "category=unknown") {
		t.Fatalf("expected default category, got: %s", msg)
	}
	if strings.Contains(msg, "reason=") {
		t.Fatalf("expected empty reason to be omitted, got: %s", msg)
	}

	msg = buildVerdictMessage("COUNTING", 5, false, "expected 3 apple, got 2")
	if !strings.Contains(msg, "category=counting") {
		t.Fatalf("expected lowercased category, got: %s", msg)
	}
	if !strings.Contains(msg, `reason="expected 3 apple, got 2"`) {
		t.Fatalf("expected quoted reason, got: %s", msg)
	}
}

func TestInitQuietWithoutFileDiscards(t *testing.T) {
	SetQuiet(true)
	t.Cleanup(func() { SetQuiet(false) })
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	LogEvent("discard")
	if err := Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
