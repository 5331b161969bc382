package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"todoline/internal/clock"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestPoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	w := New(path, time.Second, nil, nil)

	steps := []struct {
		name    string
		prepare func()
		want    bool
	}{
		{"missing file", func() {}, false},
		{"created", func() { writeFile(t, path, "a\n") }, true},
		{"unchanged", func() {}, false},
		{"same bytes rewritten", func() { writeFile(t, path, "a\n") }, false},
		{"edited", func() { writeFile(t, path, "a {cm:2018-01-05}\n") }, true},
		{"removed", func() { os.Remove(path) }, true},
		{"still missing", func() {}, false},
	}
	for _, s := range steps {
		s.prepare()
		got, err := w.Poll()
		if err != nil {
			t.Fatalf("%s: Poll() error = %v", s.name, err)
		}
		if got != s.want {
			t.Errorf("%s: Poll() = %v, want %v", s.name, got, s.want)
		}
	}
}

func TestStartEmitsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	writeFile(t, path, "one\n")

	clk := clock.NewMockClock(time.Date(2018, 1, 5, 8, 0, 0, 0, time.UTC))
	w := New(path, 2*time.Second, clk, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	writeFile(t, path, "two\n")
	clk.Advance(2 * time.Second)

	select {
	case c := <-w.Changes():
		if c.Path != path || c.Removed {
			t.Errorf("Change = %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change emitted")
	}
}

func TestStopWithoutStart(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "todo.md"), time.Second, nil, nil)
	w.Stop()
	w.Stop()
}
