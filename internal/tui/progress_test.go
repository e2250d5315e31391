package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdateProgressAndDone(t *testing.T) {
	m := newModel("counting")
	if m.Init() == nil {
		t.Fatalf("expected spinner tick command")
	}

	next, _ := m.Update(ProgressMsg{Done: 3, Total: 6})
	m = next.(*model)
	if m.done != 3 || m.total != 6 {
		t.Fatalf("expected 3/6, got %d/%d", m.done, m.total)
	}
	if !strings.Contains(m.View(), "3/6") {
		t.Fatalf("view should show progress, got %q", m.View())
	}

	next, cmd := m.Update(DoneMsg{})
	m = next.(*model)
	if !m.finished || cmd == nil {
		t.Fatalf("done message should finish the view and quit")
	}
}

func TestUpdateQuitKeyAndError(t *testing.T) {
	m := newModel("size")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Fatalf("expected quit command")
	}

	next, _ := m.Update(DoneMsg{Err: errors.New("boom")})
	m = next.(*model)
	if !strings.Contains(m.View(), "boom") {
		t.Fatalf("view should show the error, got %q", m.View())
	}
}

func TestBarFill(t *testing.T) {
	m := newModel("color")
	m.done, m.total = 5, 10
	if got := strings.Count(m.bar(), "█"); got != barWidth/2 {
		t.Fatalf("expected half-filled bar, got %d cells", got)
	}
	m.total = 0
	if strings.Contains(m.bar(), "█") {
		t.Fatalf("empty total should render an empty bar")
	}
}

func TestRunWaitsForWorkWhenViewFails(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })
	runProgram = func(p *tea.Program) error {
		p.Kill()
		return errors.New("no terminal")
	}

	var finished atomic.Bool
	err := Run(context.Background(), &bytes.Buffer{}, "spatial", func(progress func(done, total int)) error {
		time.Sleep(20 * time.Millisecond)
		progress(1, 1)
		finished.Store(true)
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "no terminal") {
		t.Fatalf("expected the view error, got %v", err)
	}
	if !finished.Load() {
		t.Fatalf("Run returned before work finished")
	}
}

func TestRunReturnsWorkError(t *testing.T) {
	var buf bytes.Buffer
	want := errors.New("load failed")
	err := Run(context.Background(), &buf, "color", func(progress func(done, total int)) error {
		progress(1, 2)
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected work error, got %v", err)
	}
}
