// Package filter implements the task query language: space separated terms
// over tags, projects, contexts, priority and due state, plus one optional
// quoted phrase matched against the title.
package filter

import (
	"strings"

	"todoline/internal/due"
	"todoline/pkg/task"
)

// Kind identifies what a term tests.
type Kind int

const (
	KindTag Kind = iota
	KindContext
	KindProject
	KindPriority
	KindDone
	KindDue
	KindOverdue
	KindRecurring
	KindNoTag
	KindNoProject
	KindNoContext
)

// Comparison qualifies priority terms.
type Comparison int

const (
	CompareExact Comparison = iota
	// CompareHigher matches the priority or anything more urgent (">$C").
	CompareHigher
	// CompareLower matches the priority or anything less urgent ("<$C").
	CompareLower
)

// Term is one atomic predicate of a query.
type Term struct {
	Kind       Kind
	Value      string
	Negated    bool
	Comparison Comparison
}

// Query is a parsed filter expression. All terms must match.
type Query struct {
	Phrase    string
	HasPhrase bool
	Terms     []Term
}

var stateKeywords = map[string]Kind{
	"done":      KindDone,
	"due":       KindDue,
	"overdue":   KindOverdue,
	"recurring": KindRecurring,
	"notag":     KindNoTag,
	"noproject": KindNoProject,
	"nocontext": KindNoContext,
}

// Parse builds a Query from its textual form. Unknown $keywords and terms
// with an empty value are dropped.
func Parse(query string) Query {
	var q Query
	if start := strings.IndexByte(query, '"'); start >= 0 {
		if end := strings.IndexByte(query[start+1:], '"'); end >= 0 {
			end += start + 1
			q.Phrase = query[start+1 : end]
			q.HasPhrase = true
			query = query[:start] + " " + query[end+1:]
		}
	}

	for _, token := range strings.Split(query, " ") {
		if term, ok := parseTerm(token); ok {
			q.Terms = append(q.Terms, term)
		}
	}
	return q
}

func parseTerm(token string) (Term, bool) {
	var term Term
	if strings.HasPrefix(token, "-") {
		term.Negated = true
		token = token[1:]
	}
	switch {
	case strings.HasPrefix(token, ">"):
		term.Comparison = CompareHigher
		token = token[1:]
	case strings.HasPrefix(token, "<"):
		term.Comparison = CompareLower
		token = token[1:]
	}
	if token == "" {
		return term, false
	}

	switch token[0] {
	case '#':
		term.Kind, term.Value = KindTag, token[1:]
	case '@':
		term.Kind, term.Value = KindContext, token[1:]
	case '+':
		term.Kind, term.Value = KindProject, token[1:]
	case '$':
		term.Value = token[1:]
		if len(term.Value) == 1 && term.Value[0] >= 'A' && term.Value[0] <= 'Z' {
			term.Kind = KindPriority
			break
		}
		kind, ok := stateKeywords[strings.ToLower(term.Value)]
		if !ok {
			return term, false
		}
		term.Kind = kind
	default:
		term.Kind, term.Value = KindTag, token
	}
	if term.Value == "" {
		return term, false
	}
	if term.Kind != KindPriority {
		term.Comparison = CompareExact
	}
	return term, true
}

// Match reports whether t satisfies every term and the phrase.
func (q Query) Match(t *task.Task) bool {
	if q.HasPhrase && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Phrase)) {
		return false
	}
	for _, term := range q.Terms {
		if term.match(t) == term.Negated {
			return false
		}
	}
	return true
}

func (term Term) match(t *task.Task) bool {
	switch term.Kind {
	case KindTag:
		return t.HasTag(term.Value)
	case KindContext:
		return t.HasContext(term.Value)
	case KindProject:
		return t.HasProject(term.Value)
	case KindPriority:
		p := term.Value[0]
		switch term.Comparison {
		case CompareHigher:
			return t.Priority <= p
		case CompareLower:
			return t.Priority >= p
		default:
			return t.Priority == p
		}
	case KindDone:
		return t.Done
	case KindDue:
		s := t.DueState()
		return t.Due != nil && (s == due.Due || s == due.Overdue)
	case KindOverdue:
		return t.Due != nil && t.Due.State == due.Overdue
	case KindRecurring:
		return t.IsRecurring()
	case KindNoTag:
		return len(t.Tags) == 0
	case KindNoProject:
		return len(t.Projects) == 0
	case KindNoContext:
		return len(t.Contexts) == 0
	}
	return true
}

// Items returns the tasks matching query, preserving their order. It does not
// descend into subtasks; flatten the tree first for nested filtering.
func Items(tasks []*task.Task, query string) []*task.Task {
	q := Parse(query)
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
