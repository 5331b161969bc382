package rollover

import (
	"sort"

	"todoline/internal/due"
	"todoline/pkg/task"
)

// Direction controls priority ordering.
type Direction int

const (
	// Descending puts the most urgent priority (A) first.
	Descending Direction = iota
	// Ascending puts the least urgent priority (Z) first.
	Ascending
)

// SortByPriority returns a stably sorted copy of tasks ordered by priority letter.
func SortByPriority(tasks []*task.Task, dir Direction) []*task.Task {
	out := append([]*task.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Ascending {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

// DefaultSort orders tasks the way the list view shows them: unfinished first,
// then by due state (overdue, due, not due, no due date), favorites, and
// finally priority. Ties keep source order.
func DefaultSort(tasks []*task.Task) []*task.Task {
	out := append([]*task.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Done != b.Done {
			return !a.Done
		}
		if ra, rb := dueRank(a), dueRank(b); ra != rb {
			return ra < rb
		}
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		return a.Priority < b.Priority
	})
	return out
}

func dueRank(t *task.Task) int {
	if t.Due == nil {
		return 3
	}
	switch t.Due.State {
	case due.Overdue:
		return 0
	case due.Due:
		return 1
	case due.NotDue:
		return 2
	default:
		return 3
	}
}
