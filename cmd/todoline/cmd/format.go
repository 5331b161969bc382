package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"todoline/internal/due"
	"todoline/pkg/task"
)

var (
	lineNoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Strikethrough(true)
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatTask renders one task line. Line numbers are 1-based, matching what
// done and due accept.
func formatTask(t *task.Task, indent int, styled bool) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	title := t.Title
	if t.PriorityRange != nil {
		title = fmt.Sprintf("(%c) %s", t.Priority, title)
	}
	label := ""
	if t.Due != nil {
		label = dueSummary(t.Due)
	}
	if t.Count != nil {
		label = strings.TrimSpace(fmt.Sprintf("%s %d/%d", label, t.Count.Current, t.Count.Needed))
	}

	lineNo := fmt.Sprintf("%4d", t.LineNumber+1)
	if styled {
		lineNo = lineNoStyle.Render(lineNo)
		title = styleTitle(t, title)
		if label != "" {
			label = styleDue(t, label)
		}
	}
	out := fmt.Sprintf("%s %s%s %s", lineNo, strings.Repeat("  ", indent), box, title)
	if label != "" {
		out += "  " + label
	}
	return out
}

func styleTitle(t *task.Task, title string) string {
	if t.Done {
		return doneStyle.Render(title)
	}
	words := strings.Split(title, " ")
	for i, w := range words {
		if len(w) > 1 && strings.ContainsRune("#@+", rune(w[0])) {
			words[i] = tagStyle.Render(w)
		}
	}
	return strings.Join(words, " ")
}

func styleDue(t *task.Task, label string) string {
	switch t.DueState() {
	case due.Overdue:
		return overdueStyle.Render(label)
	case due.Due:
		return dueStyle.Render(label)
	}
	return label
}

// dueSummary describes a due date relative to today.
func dueSummary(d *due.Date) string {
	switch d.State {
	case due.Due:
		return "due today"
	case due.Overdue:
		if d.OverdueInDays != nil {
			return "overdue since " + due.RelativeDays(-*d.OverdueInDays)
		}
		return "overdue"
	case due.Invalid:
		return fmt.Sprintf("invalid due %q", d.Raw)
	}
	if d.ClosestFutureOccurrence != "" {
		return "next " + d.ClosestFutureOccurrence
	}
	return ""
}
