package rewrite

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"todoline/internal/due"
	"todoline/internal/parser"
	"todoline/internal/rollover"
	"todoline/pkg/task"
)

// RolloverEdits converts rollover decisions into edits against doc.
// Decisions for lines that no longer hold a task are skipped.
func RolloverEdits(doc *parser.Document, decisions []rollover.Decision) []Edit {
	byLine := make(map[int]*task.Task, len(doc.Tasks))
	for _, t := range doc.Tasks {
		byLine[t.LineNumber] = t
	}

	var edits []Edit
	for _, d := range decisions {
		t, ok := byLine[d.LineNumber]
		if !ok {
			continue
		}
		if d.ClearCompletion {
			var ranges []task.Range
			for _, r := range []*task.Range{t.CompletionDateRange, t.StartRange, t.DurationRange} {
				if r != nil {
					ranges = append(ranges, *r)
				}
			}
			edits = append(edits, removeTags(t, ranges)...)
		}
		if d.SetOverdue != "" {
			edits = append(edits, setTag(t, t.OverdueRange, "overdue", d.SetOverdue))
		}
		if d.ResetCount && t.Count != nil {
			edits = append(edits, replaceRange(t, t.Count.Range, fmt.Sprintf("{count:0/%d}", t.Count.Needed)))
		}
	}
	return edits
}

// ToggleDone marks an unfinished task as completed on now, or reopens a
// completed one. Count tasks are advanced instead; a complete count wraps to 0.
// Completing a recurring task also drops its overdue marker.
func ToggleDone(t *task.Task, now time.Time) []Edit {
	if t.Count != nil {
		return IncrementCount(t)
	}
	if t.Done {
		if t.CompletionDateRange == nil {
			return nil
		}
		return []Edit{removeTag(t, *t.CompletionDateRange)}
	}
	edits := []Edit{setTag(t, nil, "cm", due.ISODate(now))}
	if t.OverdueRange != nil {
		edits = append(edits, removeTag(t, *t.OverdueRange))
	}
	return edits
}

// IncrementCount advances the count modifier by one, wrapping to 0 once the
// needed value has been reached.
func IncrementCount(t *task.Task) []Edit {
	if t.Count == nil {
		return nil
	}
	next := t.Count.Current + 1
	if t.Count.Current >= t.Count.Needed {
		next = 0
	}
	return []Edit{replaceRange(t, t.Count.Range, fmt.Sprintf("{count:%d/%d}", next, t.Count.Needed))}
}

// SetDue replaces the task's due expression. An empty expression removes it.
func SetDue(t *task.Task, expr string) []Edit {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		if t.DueRange == nil {
			return nil
		}
		return []Edit{removeTag(t, *t.DueRange)}
	}
	return []Edit{setTag(t, t.DueRange, "due", expr)}
}

// setTag replaces an existing tag range or appends the tag at the end of the line.
func setTag(t *task.Task, existing *task.Range, name, value string) Edit {
	tag := fmt.Sprintf("{%s:%s}", name, value)
	if existing != nil {
		return replaceRange(t, *existing, tag)
	}
	end := len(strings.TrimRight(t.RawText, " \t"))
	return Edit{Line: t.LineNumber, Start: end, End: end, NewText: " " + tag}
}

func replaceRange(t *task.Task, r task.Range, text string) Edit {
	return Edit{Line: t.LineNumber, Start: r.Start, End: r.End, NewText: text}
}

// removeTag deletes a tag together with one separating space: the one before
// it when words precede the tag, otherwise the one after it, so indentation
// is preserved.
func removeTag(t *task.Task, r task.Range) Edit {
	start, end := r.Start, r.End
	raw := t.RawText
	switch {
	case start > 0 && raw[start-1] == ' ' && strings.TrimLeft(raw[:start], " \t") != "":
		start--
	case end < len(raw) && raw[end] == ' ':
		end++
	}
	return Edit{Line: t.LineNumber, Start: start, End: end}
}

// removeTags deletes several tags of one line. Deletions that touch are merged
// so a leading tag followed by another tag does not produce overlapping edits.
func removeTags(t *task.Task, ranges []task.Range) []Edit {
	dels := make([]Edit, 0, len(ranges))
	for _, r := range ranges {
		dels = append(dels, removeTag(t, r))
	}
	sort.Slice(dels, func(i, j int) bool { return dels[i].Start < dels[j].Start })

	var out []Edit
	for _, d := range dels {
		if n := len(out); n > 0 && d.Start < out[n-1].End {
			last := &out[n-1]
			last.End = max(last.End, d.End)
			if strings.TrimLeft(t.RawText[:last.Start], " \t") == "" && last.End < len(t.RawText) && t.RawText[last.End] == ' ' {
				last.End++
			}
			continue
		}
		out = append(out, d)
	}
	return out
}
