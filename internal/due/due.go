package due

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// State is the due classification of an expression relative to a target date.
type State int

const (
	NotDue State = iota
	Due
	Overdue
	Invalid
)

func (s State) String() string {
	switch s {
	case NotDue:
		return "notDue"
	case Due:
		return "due"
	case Overdue:
		return "overdue"
	default:
		return "invalid"
	}
}

// Kind describes the shape of a due expression.
type Kind int

const (
	KindInvalid Kind = iota
	KindNormalDate
	KindRecurringWithDate
	KindRecurringWithoutDate
)

func (k Kind) String() string {
	switch k {
	case KindNormalDate:
		return "normalDate"
	case KindRecurringWithDate:
		return "recurringWithDate"
	case KindRecurringWithoutDate:
		return "recurringWithoutDate"
	default:
		return "invalid"
	}
}

// SearchLimit is how many days ahead the closest occurrence search probes.
const SearchLimit = 100

// MoreThanLimit is the occurrence label used when nothing matched within SearchLimit days.
const MoreThanLimit = "More than 100 days"

// Date is the immutable result of classifying one due expression.
type Date struct {
	Raw                     string
	Kind                    Kind
	IsRecurring             bool
	State                   State
	ClosestFutureOccurrence string
	DaysUntilDue            int
	OverdueInDays           *int // set only when State is Overdue
}

var (
	recurringWithDateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\|e(\d+)d$`)
	isoDateRe           = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2})?)?$`)
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// single is the classification of one comma-delimited sub-expression.
type single struct {
	state     State
	kind      Kind
	recurring bool
	date      time.Time // zero unless the sub-expression carries a date
}

// Classify evaluates a due expression against target. Comma-delimited
// sub-expressions are evaluated independently: the first one decides Kind and
// IsRecurring, while State combines all of them. A non-empty overdueAnchor
// (the oldest missed occurrence, YYYY-MM-DD) forces an Overdue state.
func Classify(expr string, target time.Time, overdueAnchor string) Date {
	d := Date{Raw: expr}
	parts := splitExpression(expr)
	if len(parts) == 0 {
		d.State = Invalid
		return d
	}

	results := make([]single, len(parts))
	for i, p := range parts {
		results[i] = classifySingle(p, target)
	}
	d.Kind = results[0].kind
	d.IsRecurring = results[0].recurring
	d.State = combine(results)
	if overdueAnchor != "" && d.State != Invalid {
		d.State = Overdue
	}

	switch d.State {
	case NotDue:
		d.ClosestFutureOccurrence, d.DaysUntilDue = closestOccurrence(parts, results, target)
	case Overdue:
		if days, ok := overdueDays(results, target, overdueAnchor); ok {
			d.OverdueInDays = &days
		}
	}
	return d
}

// StateOn classifies expr against target and returns only the combined state.
// It skips the occurrence search and is meant for day-by-day probing.
func StateOn(expr string, target time.Time) State {
	parts := splitExpression(expr)
	if len(parts) == 0 {
		return Invalid
	}
	results := make([]single, len(parts))
	for i, p := range parts {
		results[i] = classifySingle(p, target)
	}
	return combine(results)
}

func splitExpression(expr string) []string {
	var parts []string
	for _, p := range strings.Split(expr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func combine(results []single) State {
	state := NotDue
	for _, r := range results {
		switch r.state {
		case Invalid:
			return Invalid
		case Overdue:
			state = Overdue
		case Due:
			if state != Overdue {
				state = Due
			}
		}
	}
	return state
}

func classifySingle(expr string, target time.Time) single {
	lower := strings.ToLower(expr)
	switch {
	case lower == "today":
		return single{state: Due, kind: KindRecurringWithoutDate}
	case lower == "ed":
		return single{state: Due, kind: KindRecurringWithoutDate, recurring: true}
	}

	if wd, ok := weekdays[lower]; ok {
		r := single{state: NotDue, kind: KindRecurringWithoutDate, recurring: true}
		if target.Weekday() == wd {
			r.state = Due
		}
		return r
	}

	if m := recurringWithDateRe.FindStringSubmatch(expr); m != nil {
		r := single{kind: KindRecurringWithDate, recurring: true}
		anchor, ok := ParseDate(m[1])
		interval, err := strconv.Atoi(m[2])
		if !ok || err != nil || interval <= 0 {
			r.state = Invalid
			return r
		}
		r.date = anchor
		r.state = NotDue
		diff := DaysBetween(anchor, target)
		if diff >= 0 && diff%interval == 0 {
			r.state = Due
		}
		return r
	}

	if isoDateRe.MatchString(expr) {
		r := single{kind: KindNormalDate}
		date, ok := ParseDate(expr)
		if !ok {
			r.state = Invalid
			return r
		}
		r.date = date
		switch diff := DaysBetween(date, target); {
		case diff > 0:
			r.state = Overdue
		case diff == 0:
			r.state = Due
		default:
			r.state = NotDue
		}
		return r
	}

	return single{state: Invalid, kind: KindInvalid}
}

func closestOccurrence(parts []string, results []single, target time.Time) (string, int) {
	if results[0].kind == KindNormalDate {
		days := DaysBetween(target, results[0].date)
		return RelativeDays(days), days
	}
	expr := strings.Join(parts, ",")
	for i := 1; i <= SearchLimit; i++ {
		day := target.AddDate(0, 0, i)
		if StateOn(expr, day) == Due {
			return fmt.Sprintf("%s, %s", day.Weekday(), RelativeDays(i)), i
		}
	}
	return MoreThanLimit, SearchLimit
}

func overdueDays(results []single, target time.Time, anchor string) (int, bool) {
	if anchor != "" {
		if date, ok := ParseDate(anchor); ok {
			return DaysBetween(date, target), true
		}
	}
	for _, r := range results {
		if r.state == Overdue && !r.date.IsZero() {
			return DaysBetween(r.date, target), true
		}
	}
	for _, r := range results {
		if !r.date.IsZero() {
			return DaysBetween(r.date, target), true
		}
	}
	return 0, false
}
