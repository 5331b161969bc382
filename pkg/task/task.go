package task

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"todoline/internal/due"
)

// Range is a half-open [Start, End) byte range within the task's raw line.
type Range struct {
	Start int
	End   int
}

// Count is the {count:current/needed} completion-by-repetition modifier.
type Count struct {
	Current int
	Needed  int
	Range   Range
}

// Link is a hyperlink span supplied by a link detector.
type Link struct {
	Value  string
	Scheme string
	Range  Range
}

// LinkSpan is a link found by a detector on a given 0-based line.
type LinkSpan struct {
	Line   int
	Start  int
	End    int
	Target string
}

// Task represents a single line of the task file.
type Task struct {
	Title      string
	RawText    string
	LineNumber int // 0-based line index in the owning document
	IndentLvl  int

	ParentLineNumber *int
	Subtasks         []*Task

	Done          bool
	Priority      byte
	PriorityRange *Range

	Tags          []string
	TagRanges     []Range
	Projects      []string
	ProjectRanges []Range
	Contexts      []string
	ContextRanges []Range

	Due      *due.Date
	DueRange *Range
	Count    *Count

	IsHidden       bool
	IsCollapsed    bool
	IsFavorite     bool
	Start          string
	Duration       string
	CreationDate   string
	CompletionDate string
	Overdue        string
	NoOverdue      bool

	// Ranges of the valued special tags, keyed by canonical tag name.
	StartRange          *Range
	DurationRange       *Range
	CreationDateRange   *Range
	CompletionDateRange *Range
	OverdueRange        *Range

	// SpecialTagRanges lists every recognized {name:value} tag in source order.
	SpecialTagRanges []Range

	Links []Link
}

// HasTag reports whether the task carries the given tag (without the '#').
func (t *Task) HasTag(tag string) bool { return contains(t.Tags, tag) }

// HasProject reports whether the task carries the given project (without the '+').
func (t *Task) HasProject(p string) bool { return contains(t.Projects, p) }

// HasContext reports whether the task carries the given context (without the '@').
func (t *Task) HasContext(c string) bool { return contains(t.Contexts, c) }

// IsRecurring reports whether the task has a recurring due expression.
func (t *Task) IsRecurring() bool {
	return t.Due != nil && t.Due.IsRecurring
}

// DueState returns the task's due state, or due.NotDue when it has no due date.
func (t *Task) DueState() due.State {
	if t.Due == nil {
		return due.NotDue
	}
	return t.Due.State
}

// Text returns the substring of RawText covered by r.
func (t *Task) Text(r Range) string {
	if r.Start < 0 || r.End > len(t.RawText) || r.Start > r.End {
		return ""
	}
	return t.RawText[r.Start:r.End]
}

// Hash generates a stable identifier for the task based on its raw text.
func (t *Task) Hash() string {
	hash := sha256.Sum256([]byte(t.RawText))
	return hex.EncodeToString(hash[:])
}

// String returns a short human-readable form of the task.
func (t *Task) String() string {
	checkMark := " "
	if t.Done {
		checkMark = "x"
	}
	return fmt.Sprintf("%d [%s] (%c) %s", t.LineNumber+1, checkMark, t.Priority, t.Title)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
