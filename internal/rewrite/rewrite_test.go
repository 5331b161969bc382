package rewrite

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"todoline/internal/parser"
	"todoline/internal/rollover"
	"todoline/pkg/task"
)

var (
	lastVisit = time.Date(2018, 1, 1, 20, 0, 0, 0, time.UTC)
	now       = time.Date(2018, 1, 5, 8, 0, 0, 0, time.UTC)
)

func parse(lines ...string) *parser.Document {
	return parser.ParseDocument(lines, nil, parser.Options{TargetDate: now})
}

func TestApplyLines(t *testing.T) {
	lines := []string{"alpha beta", "gamma"}
	tests := []struct {
		name    string
		edits   []Edit
		want    map[int]string
		wantErr error
	}{
		{
			name:  "insert and replace on one line",
			edits: []Edit{{Line: 0, Start: 10, End: 10, NewText: " delta"}, {Line: 0, Start: 0, End: 5, NewText: "ALPHA"}},
			want:  map[int]string{0: "ALPHA beta delta"},
		},
		{
			name:  "delete",
			edits: []Edit{{Line: 1, Start: 0, End: 2}},
			want:  map[int]string{1: "mma"},
		},
		{
			name:  "no-op edit reports nothing changed",
			edits: []Edit{{Line: 1, Start: 0, End: 5, NewText: "gamma"}},
			want:  map[int]string{},
		},
		{
			name:    "line out of range",
			edits:   []Edit{{Line: 2}},
			wantErr: ErrLineOutOfRange,
		},
		{
			name:    "range out of line",
			edits:   []Edit{{Line: 1, Start: 3, End: 9}},
			wantErr: ErrLineOutOfRange,
		},
		{
			name:    "overlap after a shrinking edit",
			edits:   []Edit{{Line: 0, Start: 6, End: 10}, {Line: 0, Start: 0, End: 9, NewText: "x"}},
			wantErr: ErrOverlap,
		},
		{
			name:    "overlap",
			edits:   []Edit{{Line: 0, Start: 0, End: 6}, {Line: 0, Start: 3, End: 8}},
			wantErr: ErrOverlap,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyLines(lines, tt.edits)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ApplyLines() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyLines() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyLines() = %v, want %v", got, tt.want)
			}
		})
	}
	if lines[0] != "alpha beta" {
		t.Errorf("ApplyLines() modified its input")
	}
}

func TestApplyLines_RangeCheckedAgainstOriginalLine(t *testing.T) {
	edits := []Edit{{Line: 0, Start: 6, End: 10}, {Line: 0, Start: 0, End: 11}}
	_, err := ApplyLines([]string{"alpha beta"}, edits)
	if !errors.Is(err, ErrLineOutOfRange) {
		t.Fatalf("ApplyLines() error = %v, want ErrLineOutOfRange", err)
	}
	if !strings.Contains(err.Error(), "length 10") {
		t.Errorf("ApplyLines() error = %q, want the original line length", err)
	}
}

func TestRewrite(t *testing.T) {
	out, err := Rewrite(strings.NewReader("a\nb\nc"), map[int]string{1: "B"})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if string(out) != "a\nB\nc\n" {
		t.Errorf("Rewrite() = %q", out)
	}

	if _, err := Rewrite(bytes.NewReader([]byte("a\n")), map[int]string{4: "x"}); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("Rewrite() past EOF error = %v, want ErrLineOutOfRange", err)
	}
}

func TestRolloverEdits(t *testing.T) {
	doc := parse(
		"weekly {due:wed}",
		"daily {due:ed} {cm:2018-01-04} {start:2018-01-04T08:00:00} {duration:20m} #habit",
		"reps {due:ed} {count:3/3} {overdue:2018-01-02}",
		"stale {due:ed} {overdue:}",
	)
	decisions := rollover.Reset(doc.Tasks, lastVisit, now)
	got, err := Apply(doc.Lines, RolloverEdits(doc, decisions))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []string{
		"weekly {due:wed} {overdue:2018-01-03}",
		"daily {due:ed} #habit",
		"reps {due:ed} {count:0/3} {overdue:2018-01-02}",
		"stale {due:ed} {overdue:2018-01-01}",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rolled over lines =\n%q\nwant\n%q", got, want)
	}
}

func TestRolloverEdits_LeadingTags(t *testing.T) {
	doc := parse(
		"{cm:2018-01-04} {start:2018-01-04T08:00:00} sweep {due:ed}",
		"    {cm:2018-01-04} mop {due:ed}",
	)
	got, err := Apply(doc.Lines, RolloverEdits(doc, rollover.Reset(doc.Tasks, lastVisit, now)))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []string{"sweep {due:ed}", "    mop {due:ed}"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rolled over lines = %q, want %q", got, want)
	}
}

func TestRolloverEdits_Idempotent(t *testing.T) {
	doc := parse("weekly {due:wed}", "daily {due:ed} {count:2/3}")
	first, err := Apply(doc.Lines, RolloverEdits(doc, rollover.Reset(doc.Tasks, lastVisit, now)))
	if err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	again := parse(first...)
	decisions := rollover.Reset(again.Tasks, lastVisit, now)
	for _, d := range decisions {
		if d.SetOverdue != "" {
			t.Errorf("second rollover set another overdue marker on line %d", d.LineNumber)
		}
	}
	second, err := Apply(again.Lines, RolloverEdits(again, decisions))
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second rollover changed the document:\n%q\n%q", first, second)
	}
}

func TestUnchangedTaskRoundTrips(t *testing.T) {
	line := "  (A) call @phone +home {due:2018-01-05} #x {count:1/2}  trailing"
	doc := parse(line)
	tk := doc.Tasks[0]

	// re-setting every field to its current value must reproduce the raw line
	edits := append(SetDue(tk, tk.Due.Raw), replaceRange(tk, tk.Count.Range, tk.Text(tk.Count.Range)))
	got, err := Apply(doc.Lines, edits)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got[0] != line {
		t.Errorf("round trip = %q, want %q", got[0], line)
	}
}

func TestToggleDone(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"complete", "write report", "write report {cm:2018-01-05}"},
		{"reopen", "write report {cm:2018-01-04} #work", "write report #work"},
		{"reopen leading tag", "{cm:2018-01-04} sweep", "sweep"},
		{"reopen indented leading tag", "    {cm:2018-01-04} sweep", "    sweep"},
		{"complete overdue", "water {due:ed} {overdue:2018-01-02}", "water {due:ed} {cm:2018-01-05}"},
		{"count advances", "reps {count:1/3}", "reps {count:2/3}"},
		{"count wraps", "reps {count:3/3}", "reps {count:0/3}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(tt.line)
			got, err := Apply(doc.Lines, ToggleDone(doc.Tasks[0], now))
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got[0] != tt.want {
				t.Errorf("ToggleDone() = %q, want %q", got[0], tt.want)
			}
		})
	}
}

func TestSetDue(t *testing.T) {
	tests := []struct {
		line string
		expr string
		want string
	}{
		{"pay rent", "2018-02-01", "pay rent {due:2018-02-01}"},
		{"pay rent {due:2018-01-01} #bills", "2018-02-01", "pay rent {due:2018-02-01} #bills"},
		{"pay rent {due:2018-01-01} #bills", "", "pay rent #bills"},
		{"pay rent", " ", "pay rent"},
	}
	for _, tt := range tests {
		doc := parse(tt.line)
		got, err := Apply(doc.Lines, SetDue(doc.Tasks[0], tt.expr))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got[0] != tt.want {
			t.Errorf("SetDue(%q, %q) = %q, want %q", tt.line, tt.expr, got[0], tt.want)
		}
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	if err := os.WriteFile(path, []byte("# chores\nsweep\nmop {due:ed}\n"), 0o640); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	lines, err := parser.ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	doc := parser.ParseDocument(lines, nil, parser.Options{TargetDate: now})
	sweep := task.FindAtLine(doc.Tree, 1)
	if sweep == nil {
		t.Fatalf("task on line 1 not found")
	}

	changed, err := ApplyFile(path, doc.Lines, ToggleDone(sweep, now))
	if err != nil || !changed {
		t.Fatalf("ApplyFile() = %v, %v", changed, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# chores\nsweep {cm:2018-01-05}\nmop {due:ed}\n" {
		t.Errorf("file content = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("file mode = %v, want 0640", info.Mode().Perm())
	}

	changed, err = ApplyFile(path, doc.Lines, nil)
	if err != nil || changed {
		t.Errorf("ApplyFile() without edits = %v, %v", changed, err)
	}
}
