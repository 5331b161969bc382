package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"todoline/internal/filter"
	"todoline/internal/parser"
	"todoline/internal/rollover"
	"todoline/internal/watcher"
	"todoline/pkg/task"
)

// Workspace is the part of core.Workspace the TUI needs.
type Workspace interface {
	Path() string
	Current() *parser.Document
	Load() (*parser.Document, error)
	ToggleDone(line int, expectHash string) (*task.Task, error)
	SetDue(line int, expectHash, expr string) (*task.Task, error)
}

// ActiveView selects what the model renders and how keys are routed.
type ActiveView int

const (
	ViewTaskList ActiveView = iota
	ViewFilter
	ViewDue
	ViewDetail
	ViewQuitting
)

// SortMode is cycled with "s".
type SortMode int

const (
	SortDefault SortMode = iota
	SortPriority
	SortFile
)

func (s SortMode) String() string {
	switch s {
	case SortPriority:
		return "priority"
	case SortFile:
		return "file"
	default:
		return "default"
	}
}

// TaskItem represents a task for the list.
type TaskItem struct {
	Task  *task.Task
	Width int
}

func (t TaskItem) Title() string {
	box := "[ ]"
	if t.Task.Done {
		box = "[x]"
	}
	indent := strings.Repeat("  ", t.Task.IndentLvl)
	title := t.Task.Title
	if t.Task.Priority != 0 && t.Task.PriorityRange != nil {
		title = fmt.Sprintf("(%c) %s", t.Task.Priority, title)
	}
	text := wrapText(title, t.Width-len(indent)-4)
	text = strings.ReplaceAll(text, "\n", "\n"+indent+"    ")
	return indent + box + " " + styleFor(t.Task).Render(text)
}

func (t TaskItem) Description() string {
	if t.Task.Due == nil {
		return ""
	}
	return dueLabel(t.Task)
}

func (t TaskItem) FilterValue() string { return t.Task.RawText }

// SetWidth sets the width used to wrap the title.
func (t *TaskItem) SetWidth(w int) { t.Width = w }

// model is the Bubbletea model for the TUI.
type model struct {
	ws         Workspace
	watch      *watcher.Watcher
	list       list.Model
	input      textinput.Model
	detail     table.Model
	progress   progress.Model
	ActiveView ActiveView

	query   string
	sort    SortMode
	showAll bool
	status  string

	height int // Track terminal height for dynamic resizing
	width  int // Track terminal width for dynamic resizing
}

// InitialModel creates the initial TUI model for a loaded workspace.
func InitialModel(ws Workspace, height int) model {
	defaultWidth := 80
	listDelegate := list.NewDefaultDelegate()
	l := list.New(nil, listDelegate, defaultWidth, max(height-8, 5))
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = defaultWidth - 10

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Field", Width: 12},
			{Title: "Value", Width: defaultWidth - 20},
		}),
		table.WithFocused(false),
		table.WithHeight(12),
	)

	m := model{
		ws:       ws,
		list:     l,
		input:    ti,
		detail:   t,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		height:   height,
		width:    defaultWidth,
	}
	m.refresh()
	return m
}

// visibleTasks applies the filter, the hidden flag and the sort mode to the
// current document.
func (m model) visibleTasks() []*task.Task {
	doc := m.ws.Current()
	if doc == nil {
		return nil
	}
	tasks := filter.Items(doc.Tasks, m.query)
	if !m.showAll {
		shown := tasks[:0:0]
		for _, t := range tasks {
			if !t.IsHidden {
				shown = append(shown, t)
			}
		}
		tasks = shown
	}
	switch m.sort {
	case SortDefault:
		tasks = rollover.DefaultSort(tasks)
	case SortPriority:
		tasks = rollover.SortByPriority(tasks, rollover.Descending)
	}
	return tasks
}

// refresh rebuilds the list items, keeping the cursor on the same line when
// that task is still visible.
func (m *model) refresh() {
	selected := -1
	if item, ok := m.list.SelectedItem().(TaskItem); ok {
		selected = item.Task.LineNumber
	}
	m.list.Title = m.ws.Path()
	if doc := m.ws.Current(); doc != nil && doc.Title() != "" {
		m.list.Title = doc.Title()
	}
	tasks := m.visibleTasks()
	items := make([]list.Item, len(tasks))
	cursor := 0
	for i, t := range tasks {
		items[i] = TaskItem{Task: t, Width: m.width - 4}
		if t.LineNumber == selected {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(cursor)
}

func (m model) selected() (*task.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return nil, false
	}
	return item.Task, true
}
