// Package clock supplies "now" to the components that need wall time, so the
// date-sensitive engines can stay pure and tests can pin the date.
package clock

import (
	"time"
)

// Clock interface for testable time control
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the watcher relies on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock implements Clock using the time package
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Fixed returns a clock frozen at t, useful for one-shot CLI runs with --now.
func Fixed(t time.Time) Clock { return NewMockClock(t) }
