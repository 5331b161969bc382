package due

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk date format used by every date-valued tag.
const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD, ignoring any "T..." time suffix. It rejects
// triplets that are not real calendar dates (month 13, Feb 30).
func ParseDate(s string) (time.Time, bool) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ISODate formats t as YYYY-MM-DD in its own location.
func ISODate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b, ignoring the
// time of day and each value's location offset.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// RelativeDays renders a day difference as "today", "tomorrow", "in 3 days"...
func RelativeDays(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}
