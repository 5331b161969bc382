package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"todoline/internal/core"
	"todoline/internal/watcher"
)

// Message types for Bubbletea update loop
type fileChangedMsg struct{}
type watchErrMsg struct{ err error }

// watchFileCmd returns a Bubbletea command that waits for the next change or
// polling error from the watcher.
func watchFileCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		case err := <-w.Errors():
			return watchErrMsg{err}
		}
	}
}

// Update handles all Bubbletea update logic for the TUI model.
func Update(m model, msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsg(m, msg)
	case fileChangedMsg:
		m, _ = handleFileChanged(m)
		return m, watchFileCmd(m.watch)
	case watchErrMsg:
		m.status = fmt.Sprintf("watch error: %v", msg.err)
		return m, watchFileCmd(m.watch)
	case tea.WindowSizeMsg:
		return handleWindowResize(m, msg)
	}
	if m.ActiveView == ViewTaskList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func HandleKeyMsg(m model, msg tea.KeyMsg) (model, tea.Cmd) {
	k := msg.String()

	switch m.ActiveView {
	case ViewQuitting:
		// If quitting, ignore further input
		return m, nil

	case ViewFilter:
		switch k {
		case "enter":
			m.ActiveView = ViewTaskList
			m.input.Blur()
			return m, nil
		case "esc":
			m.ActiveView = ViewTaskList
			m.input.Blur()
			m.query = ""
			m.refresh()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.refresh()
		return m, cmd

	case ViewDue:
		switch k {
		case "enter":
			m.ActiveView = ViewTaskList
			m.input.Blur()
			if t, ok := m.selected(); ok {
				m = applyEdit(m, func() error {
					_, err := m.ws.SetDue(t.LineNumber, t.Hash(), m.input.Value())
					return err
				})
			}
			return m, nil
		case "esc":
			m.ActiveView = ViewTaskList
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case ViewDetail:
		switch k {
		case "esc", "enter", "backspace":
			m.ActiveView = ViewTaskList
			return m, nil
		case "ctrl+c", "q":
			m.ActiveView = ViewQuitting
			return m, tea.Quit
		case "x":
			m = toggleSelected(m)
			m.detail.SetRows(nil)
			if t, ok := m.selected(); ok {
				m.detail.SetRows(detailRows(t))
			}
			return m, nil
		}
		return m, nil
	}

	switch k {
	case "ctrl+c", "q":
		m.ActiveView = ViewQuitting
		return m, tea.Quit
	case "/":
		m.ActiveView = ViewFilter
		m.input.Placeholder = "#tag @context +project $A >$C $due \"phrase\""
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.ActiveView = ViewDue
		m.input.Placeholder = "2006-01-02, mon, ed, 2006-01-02|e3d"
		m.input.SetValue("")
		if t.Due != nil {
			m.input.SetValue(t.Due.Raw)
		}
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "x", " ":
		return toggleSelected(m), nil
	case "s":
		m.sort = (m.sort + 1) % 3
		m.refresh()
		return m, nil
	case "a":
		m.showAll = !m.showAll
		m.refresh()
		return m, nil
	case "r":
		return handleFileChanged(m)
	case "enter":
		if t, ok := m.selected(); ok {
			m.detail.SetRows(detailRows(t))
			m.ActiveView = ViewDetail
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func toggleSelected(m model) model {
	t, ok := m.selected()
	if !ok {
		return m
	}
	return applyEdit(m, func() error {
		_, err := m.ws.ToggleDone(t.LineNumber, t.Hash())
		return err
	})
}

// applyEdit runs a workspace edit and refreshes the list from the swapped
// document. Errors end up in the status line; a stale task reloads the list
// so the user sees what is on disk now.
func applyEdit(m model, edit func() error) model {
	if err := edit(); err != nil {
		m.status = err.Error()
		if errors.Is(err, core.ErrStale) {
			m.refresh()
		}
		return m
	}
	m.status = ""
	m.refresh()
	return m
}

func handleFileChanged(m model) (model, tea.Cmd) {
	if _, err := m.ws.Load(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
		return m, nil
	}
	m.status = ""
	m.refresh()
	return m, nil
}

func handleWindowResize(m model, msg tea.WindowSizeMsg) (model, tea.Cmd) {
	m.height = msg.Height
	m.width = msg.Width
	m.list.SetHeight(max(msg.Height-6, 5))
	m.list.SetWidth(msg.Width - 4)
	m.input.Width = msg.Width - 10
	m.detail.SetWidth(msg.Width - 4)
	m.detail.SetColumns([]table.Column{
		{Title: "Field", Width: 12},
		{Title: "Value", Width: max(msg.Width-20, 20)},
	})
	// Refresh list items with updated width for dynamic wrapping
	m.refresh()
	return m, nil
}
