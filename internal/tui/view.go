package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"todoline/internal/due"
	"todoline/pkg/task"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Strikethrough(true)
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF"))
	plainStyle   = lipgloss.NewStyle()
)

// styleFor picks the title style from the task's completion and due state.
func styleFor(t *task.Task) lipgloss.Style {
	if t.Done {
		return doneStyle
	}
	if t.Due == nil {
		return plainStyle
	}
	switch t.Due.State {
	case due.Overdue:
		return overdueStyle
	case due.Due:
		return dueStyle
	case due.Invalid:
		return invalidStyle
	}
	return plainStyle
}

// dueLabel describes when the task is due relative to today.
func dueLabel(t *task.Task) string {
	d := t.Due
	switch d.State {
	case due.Due:
		return "due today"
	case due.Overdue:
		if d.OverdueInDays != nil {
			return fmt.Sprintf("overdue %s", due.RelativeDays(-*d.OverdueInDays))
		}
		return "overdue"
	case due.Invalid:
		return fmt.Sprintf("invalid due date %q", d.Raw)
	default:
		if d.ClosestFutureOccurrence != "" {
			return "next: " + d.ClosestFutureOccurrence
		}
		return "not due"
	}
}

// ModelView renders the TUI model's view as a string.
func ModelView(m model) string {
	switch m.ActiveView {
	case ViewQuitting:
		return "Goodbye!\n"
	case ViewDetail:
		return detailView(m)
	default:
		return taskListView(m)
	}
}

func taskListView(m model) string {
	taskList := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(0, 1).
		Render(m.list.View())

	var footer string
	switch m.ActiveView {
	case ViewFilter:
		footer = headerStyle.Render("filter: ") + m.input.View()
	case ViewDue:
		footer = headerStyle.Render("due: ") + m.input.View()
	default:
		parts := []string{"sort: " + m.sort.String()}
		if m.query != "" {
			parts = append(parts, "filter: "+m.query)
		}
		if m.showAll {
			parts = append(parts, "showing hidden")
		}
		if m.status != "" {
			parts = append(parts, m.status)
		}
		footer = statusStyle.Render(strings.Join(parts, " · "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, taskList, footer)
}

func detailView(m model) string {
	t, ok := m.selected()
	if !ok {
		return taskListView(m)
	}
	blocks := []string{headerStyle.Render(wrapText(t.Title, m.width-4)), m.detail.View()}
	if t.Count != nil && t.Count.Needed > 0 {
		ratio := float64(t.Count.Current) / float64(t.Count.Needed)
		blocks = append(blocks, fmt.Sprintf("%s %d/%d", m.progress.ViewAs(min(ratio, 1)), t.Count.Current, t.Count.Needed))
	}
	blocks = append(blocks, statusStyle.Render("esc: back · x: toggle done · d: set due"))
	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

// detailRows lists the parsed fields of t for the detail table.
func detailRows(t *task.Task) []table.Row {
	rows := []table.Row{
		{"Line", fmt.Sprint(t.LineNumber + 1)},
		{"Priority", string(t.Priority)},
		{"Done", fmt.Sprint(t.Done)},
	}
	add := func(name, value string) {
		if value != "" {
			rows = append(rows, table.Row{name, value})
		}
	}
	if t.Due != nil {
		add("Due", t.Due.Raw+" ("+dueLabel(t)+")")
	}
	add("Tags", strings.Join(t.Tags, " "))
	add("Projects", strings.Join(t.Projects, " "))
	add("Contexts", strings.Join(t.Contexts, " "))
	add("Created", t.CreationDate)
	add("Completed", t.CompletionDate)
	add("Overdue", t.Overdue)
	add("Start", t.Start)
	add("Duration", t.Duration)
	for _, l := range t.Links {
		add("Link", l.Value)
	}
	if len(t.Subtasks) > 0 {
		add("Subtasks", fmt.Sprint(len(t.Subtasks)))
	}
	return rows
}
