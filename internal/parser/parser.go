package parser

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"todoline/internal/due"
	"todoline/pkg/task"
)

// DefaultTabSize is used when Options.TabSize is not positive.
const DefaultTabSize = 4

// DefaultPriority is used when Options.DefaultPriority is unset.
const DefaultPriority byte = 'Z'

// Options carries the read-only values a parse pass depends on.
type Options struct {
	TabSize         int
	DefaultPriority byte
	// TargetDate is the reference date due expressions are classified against.
	TargetDate time.Time
}

func (o Options) tabSize() int {
	if o.TabSize <= 0 {
		return DefaultTabSize
	}
	return o.TabSize
}

func (o Options) defaultPriority() byte {
	if o.DefaultPriority < 'A' || o.DefaultPriority > 'Z' {
		return DefaultPriority
	}
	return o.DefaultPriority
}

// LineKind classifies a parsed line.
type LineKind int

const (
	LineEmpty LineKind = iota
	LineComment
	LineTask
)

// Line is the result of parsing one line of text. Task is set only for LineTask.
type Line struct {
	Kind LineKind
	Task *task.Task
}

// special tag names, lower-cased, mapped to their canonical form
var specialTags = map[string]string{
	"due":       "due",
	"overdue":   "overdue",
	"cr":        "cr",
	"cm":        "cm",
	"count":     "count",
	"h":         "h",
	"hidden":    "h",
	"c":         "c",
	"collapsed": "c",
	"f":         "f",
	"favorite":  "f",
	"start":     "start",
	"duration":  "duration",
	"nooverdue": "noOverdue",
}

// ParseLine turns one line of the task file into a Task, or reports it as an
// empty or comment line. It never fails: malformed tokens degrade to title text.
func ParseLine(text string, lineNumber int, opts Options) Line {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Line{Kind: LineEmpty}
	}
	if strings.HasPrefix(trimmed, "# ") {
		return Line{Kind: LineComment}
	}

	t := &task.Task{
		RawText:    text,
		LineNumber: lineNumber,
		IndentLvl:  indentWidth(text, opts.tabSize()) / opts.tabSize(),
		Priority:   opts.defaultPriority(),
	}

	var kept []string
	var dueExpr string
	offset := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	for _, word := range strings.Split(trimmed, " ") {
		r := task.Range{Start: offset, End: offset + len(word)}
		offset += len(word) + 1
		if word == "" {
			continue
		}

		switch {
		case len(word) > 2 && word[0] == '{' && word[len(word)-1] == '}':
			if expr, ok := applySpecialTag(t, word[1:len(word)-1], r); ok {
				if expr != nil {
					dueExpr = *expr
				}
				t.SpecialTagRanges = append(t.SpecialTagRanges, r)
				continue
			}
		case word[0] == '#' && len(word) > 1:
			t.Tags = append(t.Tags, word[1:])
			t.TagRanges = append(t.TagRanges, r)
		case word[0] == '@' && len(word) > 1:
			t.Contexts = append(t.Contexts, word[1:])
			t.ContextRanges = append(t.ContextRanges, r)
		case word[0] == '+' && len(word) > 1:
			t.Projects = append(t.Projects, word[1:])
			t.ProjectRanges = append(t.ProjectRanges, r)
		case isPriority(word):
			t.Priority = word[1]
			pr := r
			t.PriorityRange = &pr
			continue
		}
		kept = append(kept, word)
	}

	t.Title = strings.Join(kept, " ")
	if dueExpr != "" {
		d := due.Classify(dueExpr, opts.TargetDate, "")
		t.Due = &d
	}
	if t.Count != nil && t.Count.Current == t.Count.Needed {
		t.Done = true
	}
	return Line{Kind: LineTask, Task: t}
}

// applySpecialTag records a {name:value} tag on t. It reports false when the
// tag is unknown or malformed, in which case the word stays in the title.
// For due tags it also returns the raw expression.
func applySpecialTag(t *task.Task, inner string, r task.Range) (*string, bool) {
	name, value, _ := strings.Cut(inner, ":")
	canonical, ok := specialTags[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	rng := &r
	switch canonical {
	case "due":
		t.DueRange = rng
		return &value, true
	case "overdue":
		t.Overdue = value
		t.OverdueRange = rng
	case "cr":
		t.CreationDate = value
		t.CreationDateRange = rng
	case "cm":
		t.CompletionDate = value
		t.CompletionDateRange = rng
		t.Done = true
	case "count":
		c, ok := parseCount(value)
		if !ok {
			return nil, false
		}
		c.Range = r
		t.Count = c
	case "h":
		t.IsHidden = true
	case "c":
		t.IsCollapsed = true
	case "f":
		t.IsFavorite = true
	case "start":
		t.Start = value
		t.StartRange = rng
	case "duration":
		t.Duration = value
		t.DurationRange = rng
	case "noOverdue":
		t.NoOverdue = true
	}
	return nil, true
}

func parseCount(value string) (*task.Count, bool) {
	cur, need, ok := strings.Cut(value, "/")
	if !ok {
		return nil, false
	}
	current, err := strconv.Atoi(cur)
	if err != nil {
		return nil, false
	}
	needed, err := strconv.Atoi(need)
	if err != nil {
		return nil, false
	}
	return &task.Count{Current: current, Needed: needed}, true
}

func isPriority(word string) bool {
	return len(word) == 3 && word[0] == '(' && word[2] == ')' && word[1] >= 'A' && word[1] <= 'Z'
}

// indentWidth measures the display width of the leading whitespace; tabs
// advance to the next tab stop.
func indentWidth(line string, tabSize int) int {
	width := 0
	for len(line) > 0 {
		r, size := utf8.DecodeRuneInString(line)
		if !unicode.IsSpace(r) {
			break
		}
		if r == '\t' {
			width += tabSize - width%tabSize
		} else {
			width += max(runewidth.RuneWidth(r), 1)
		}
		line = line[size:]
	}
	return width
}
