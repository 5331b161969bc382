package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoline/internal/clock"
	"todoline/internal/state"
	"todoline/pkg/task"
)

var (
	monday = time.Date(2018, 1, 1, 20, 0, 0, 0, time.UTC)
	friday = time.Date(2018, 1, 5, 8, 0, 0, 0, time.UTC)
)

func setup(t *testing.T, content string) (*Workspace, *clock.MockClock, *state.InMemoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	clk := clock.NewMockClock(monday)
	store := state.NewInMemoryStore()
	ws, err := NewWorkspace(path, Options{}, clk, store, nil)
	require.NoError(t, err)
	return ws, clk, store, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWorkspace_LoadSwapsDocument(t *testing.T) {
	ws, _, _, path := setup(t, "one\n    child see https://example.com\n")
	assert.Nil(t, ws.Current())

	doc, err := ws.Load()
	require.NoError(t, err)
	assert.Same(t, doc, ws.Current())
	require.Len(t, doc.Tree, 1)
	require.Len(t, doc.Tree[0].Subtasks, 1)
	require.Len(t, doc.Tasks[1].Links, 1)
	assert.Equal(t, "https://example.com", doc.Tasks[1].Links[0].Value)

	require.NoError(t, os.WriteFile(path, []byte("two\n"), 0o644))
	next, err := ws.Load()
	require.NoError(t, err)
	assert.NotSame(t, doc, next)
	assert.Equal(t, "two", ws.Current().Tasks[0].Title)
	assert.Equal(t, "one", doc.Tasks[0].Title, "old snapshot must stay intact")
}

func TestWorkspace_LoadMissingFile(t *testing.T) {
	ws, err := NewWorkspace(filepath.Join(t.TempDir(), "nope.md"), Options{}, nil, nil, nil)
	require.NoError(t, err)
	_, err = ws.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkspace_RolloverFirstVisitOnlyRecords(t *testing.T) {
	ws, _, store, path := setup(t, "daily {due:ed} {cm:2018-01-01}\n")

	res, err := ws.Rollover()
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "daily {due:ed} {cm:2018-01-01}\n", readFile(t, path))

	v, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, monday, v.LastVisit)
}

func TestWorkspace_RolloverOnNewDay(t *testing.T) {
	ws, clk, store, path := setup(t, "# chores\nweekly {due:wed}\ndaily {due:ed} {cm:2018-01-01}\nonce\n")
	_, err := ws.Rollover()
	require.NoError(t, err)

	clk.Set(friday)
	res, err := ws.Rollover()
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Len(t, res.Decisions, 2)
	assert.Equal(t, monday, res.LastVisit)
	assert.Equal(t, "# chores\nweekly {due:wed} {overdue:2018-01-03}\ndaily {due:ed}\nonce\n", readFile(t, path))

	weekly := ws.Current().Tasks[0]
	assert.Equal(t, "2018-01-03", weekly.Overdue)

	v, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, friday, v.LastVisit)

	// a second run on the same day is a no-op
	res, err = ws.Rollover()
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Decisions)
}

type failingStore struct{}

func (*failingStore) Load(string) (state.Visit, error) {
	return state.Visit{}, errors.New("disk on fire")
}
func (*failingStore) Save(state.Visit) error { return nil }
func (*failingStore) Close() error           { return nil }

func TestWorkspace_RolloverStoreError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	ws, err := NewWorkspace(path, Options{}, clock.NewMockClock(friday), &failingStore{}, nil)
	require.NoError(t, err)

	_, err = ws.Rollover()
	assert.ErrorContains(t, err, "disk on fire")
}

func TestWorkspace_ToggleDone(t *testing.T) {
	ws, clk, _, path := setup(t, "pay rent\nreps {count:2/3}\n")
	clk.Set(friday)

	tk, err := ws.ToggleDone(0, "")
	require.NoError(t, err)
	assert.True(t, tk.Done)
	assert.Equal(t, "2018-01-05", tk.CompletionDate)

	tk, err = ws.ToggleDone(1, "")
	require.NoError(t, err)
	assert.True(t, tk.Done)
	assert.Equal(t, "pay rent {cm:2018-01-05}\nreps {count:3/3}\n", readFile(t, path))

	tk, err = ws.ToggleDone(0, "")
	require.NoError(t, err)
	assert.False(t, tk.Done)

	_, err = ws.ToggleDone(7, "")
	assert.ErrorIs(t, err, ErrNoTask)
}

func TestWorkspace_SetDue(t *testing.T) {
	ws, _, _, path := setup(t, "pay rent #bills\n")

	tk, err := ws.SetDue(0, "", "2018-01-01")
	require.NoError(t, err)
	require.NotNil(t, tk.Due)
	assert.Equal(t, "pay rent #bills {due:2018-01-01}\n", readFile(t, path))

	tk, err = ws.SetDue(0, "", "")
	require.NoError(t, err)
	assert.Nil(t, tk.Due)
	assert.Equal(t, "pay rent #bills\n", readFile(t, path))
}

func TestWorkspace_EditRejectsStaleTask(t *testing.T) {
	ws, _, _, path := setup(t, "pay rent\nbuy milk\n")
	doc, err := ws.Load()
	require.NoError(t, err)
	seen := doc.Tasks[0]

	// another program inserts a line above before the next reload
	require.NoError(t, os.WriteFile(path, []byte("call bob\npay rent\nbuy milk\n"), 0o644))

	_, err = ws.ToggleDone(seen.LineNumber, seen.Hash())
	assert.ErrorIs(t, err, ErrStale)
	_, err = ws.SetDue(seen.LineNumber, seen.Hash(), "fri")
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "call bob\npay rent\nbuy milk\n", readFile(t, path))

	moved := task.FindAtLine(ws.Current().Tree, 1)
	require.NotNil(t, moved)
	tk, err := ws.ToggleDone(moved.LineNumber, seen.Hash())
	require.NoError(t, err)
	assert.True(t, tk.Done)
	assert.Equal(t, "call bob\npay rent {cm:2018-01-01}\nbuy milk\n", readFile(t, path))
}
