package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mwiater/compbench/internal/aggregate"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Width(14)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	goodResult  = color.New(color.FgGreen).SprintFunc()
	fairResult  = color.New(color.FgYellow).SprintFunc()
	poorResult  = color.New(color.FgRed).SprintFunc()
	levelLabels = map[int]string{0: "Unleveled", 1: "Easy", 2: "Medium", 3: "Hard"}
)

func percent(v float64) string {
	s := fmt.Sprintf("%6.2f%%", v*100)
	switch {
	case v >= 0.75:
		return goodResult(s)
	case v >= 0.4:
		return fairResult(s)
	default:
		return poorResult(s)
	}
}

func levelName(level int) string {
	if name, ok := levelLabels[level]; ok {
		return name
	}
	return fmt.Sprintf("Level %d", level)
}

// Summary renders one report as a bordered console block.
func Summary(r aggregate.AccuracyReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(strings.ToUpper(string(r.Category))))
	fmt.Fprintf(&b, "%s%s  (%d/%d)\n", labelStyle.Render("Accuracy"), percent(r.Accuracy), r.CorrectCount, r.TotalRecordsConsidered)

	levels := make([]int, 0, len(r.Levels))
	for l := range r.Levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	for _, l := range levels {
		ls := r.Levels[l]
		fmt.Fprintf(&b, "%s%s  (%d/%d)\n", labelStyle.Render(levelName(l)), percent(ls.Accuracy), ls.Correct, ls.Total)
	}
	if len(levels) > 1 {
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Level mean"), percent(r.AverageLevelAccuracy))
	}
	if r.Slots != nil {
		fmt.Fprintf(&b, "%s%s  (%d/%d)\n", labelStyle.Render("Objects"), percent(r.Slots.Accuracy), r.Slots.Correct, r.Slots.Total)
	}
	if c := r.Counting; c != nil {
		fmt.Fprintf(&b, "%sP %s  R %s  F1 %s\n", labelStyle.Render("Instances"), percent(c.Precision), percent(c.Recall), percent(c.F1))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("undetected %d  orphans %d  duplicates %d  gaps %d",
		r.Undetected, r.OrphanDetections, r.DuplicatePrompts, r.IndexGapCount)))
	return boxStyle.Render(b.String())
}

// Render writes the summaries of several reports side by side in rows of two.
func Render(w io.Writer, reports []aggregate.AccuracyReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no reports"))
		return
	}
	for i := 0; i < len(reports); i += 2 {
		row := []string{Summary(reports[i])}
		if i+1 < len(reports) {
			row = append(row, " ", Summary(reports[i+1]))
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
}
