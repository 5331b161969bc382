package task

// Walk visits every task of the tree in source order (pre-order, depth first).
// Returning false from fn skips the visited task's subtasks.
// It uses an explicit stack so pathologically deep nesting cannot overflow.
func Walk(roots []*Task, fn func(t *Task, depth int) bool) {
	type frame struct {
		t     *Task
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.t, f.depth) {
			continue
		}
		for i := len(f.t.Subtasks) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.t.Subtasks[i], f.depth + 1})
		}
	}
}

// Flatten returns every task of the tree in source order.
func Flatten(roots []*Task) []*Task {
	var out []*Task
	Walk(roots, func(t *Task, _ int) bool {
		out = append(out, t)
		return true
	})
	return out
}

// FindAtLine returns the task on the given 0-based line, or nil.
func FindAtLine(roots []*Task, line int) *Task {
	var found *Task
	Walk(roots, func(t *Task, _ int) bool {
		if found != nil {
			return false
		}
		if t.LineNumber == line {
			found = t
			return false
		}
		return true
	})
	return found
}
