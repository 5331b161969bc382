// Package rollover orders tasks and decides how recurring tasks roll over to
// a new day.
package rollover

import (
	"time"

	"todoline/internal/due"
	"todoline/pkg/task"
)

// Decision describes the changes one recurring task needs on rollover.
// The rewrite package turns decisions into text edits.
type Decision struct {
	LineNumber int
	// ClearCompletion removes the completion date, start and duration tags.
	ClearCompletion bool
	// SetOverdue is the ISO date of the oldest missed occurrence, or "".
	SetOverdue string
	// ResetCount sets the count modifier's current value back to 0.
	ResetCount bool
}

// Empty reports whether the decision changes nothing.
func (d Decision) Empty() bool {
	return !d.ClearCompletion && d.SetOverdue == "" && !d.ResetCount
}

// Reset walks every recurring task and decides what the rollover from
// lastVisit to now must change. Missed occurrences since the last visit yield
// a single overdue marker dated to the oldest one.
func Reset(tasks []*task.Task, lastVisit, now time.Time) []Decision {
	sameDay := due.SameDay(lastVisit, now)
	daysSince := due.DaysBetween(lastVisit, now)

	var decisions []Decision
	for _, t := range tasks {
		if !t.IsRecurring() {
			continue
		}
		d := Decision{LineNumber: t.LineNumber}

		if t.Done {
			d.ClearCompletion = true
		} else if t.Overdue == "" && !sameDay && !t.NoOverdue {
			d.SetOverdue = oldestMissed(t.Due.Raw, now, daysSince)
		}
		if t.Count != nil && t.Count.Current != 0 {
			d.ResetCount = true
		}

		if !d.Empty() {
			decisions = append(decisions, d)
		}
	}
	return decisions
}

func oldestMissed(expr string, now time.Time, daysSince int) string {
	for i := daysSince; i > 0; i-- {
		date := now.AddDate(0, 0, -i)
		switch due.StateOn(expr, date) {
		case due.Due, due.Overdue:
			return due.ISODate(date)
		}
	}
	return ""
}
