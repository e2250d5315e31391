// Package tui renders a live progress view while a category is evaluated.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressMsg reports how many records have been scored.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg ends the view.
type DoneMsg struct {
	Err error
}

const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type model struct {
	title    string
	spinner  spinner.Model
	done     int
	total    int
	start    time.Time
	finished bool
	err      error
}

func newModel(title string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &model{title: title, spinner: s, start: time.Now()}
}

// Init starts the spinner animation.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and quit keys.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) bar() string {
	filled := 0
	if m.total > 0 {
		filled = m.done * barWidth / m.total
	}
	return barStyle.Render(strings.Repeat("█", filled)) + emptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// View renders the spinner, bar and elapsed time.
func (m *model) View() string {
	elapsed := time.Since(m.start).Truncate(100 * time.Millisecond)
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("  %s failed: %v", m.title, m.err)) + "\n"
	}
	if m.finished {
		return fmt.Sprintf("  %s %s %d/%d in %s\n", titleStyle.Render(m.title), m.bar(), m.done, m.total, elapsed)
	}
	return fmt.Sprintf("  %s %s %s %d/%d %s\n", m.spinner.View(), titleStyle.Render(m.title), m.bar(), m.done, m.total, elapsed)
}

var runProgram = func(p *tea.Program) error {
	_, err := p.Run()
	return err
}

// Run shows a progress view on out while work runs. work receives a progress
// callback that is safe to call from several goroutines. Run always waits for
// work to return; a failure of the view itself takes precedence over the
// error of work.
func Run(ctx context.Context, out io.Writer, title string, work func(progress func(done, total int)) error) error {
	p := tea.NewProgram(newModel(title), tea.WithContext(ctx), tea.WithOutput(out), tea.WithInput(nil))

	result := make(chan error, 1)
	go func() {
		err := work(func(done, total int) {
			p.Send(ProgressMsg{Done: done, Total: total})
		})
		result <- err
		p.Send(DoneMsg{Err: err})
	}()

	viewErr := runProgram(p)
	workErr := <-result
	if viewErr != nil && ctx.Err() == nil {
		return fmt.Errorf("progress view: %w", viewErr)
	}
	return workErr
}
