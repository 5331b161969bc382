package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clk := RealClock{}
	before := time.Now()
	now := clk.Now()
	if now.Before(before) || now.After(time.Now()) {
		t.Errorf("RealClock.Now returned unexpected time: %v", now)
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	ticker := RealClock{}.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("RealClock.NewTicker.C did not fire within expected time")
	}
}

func TestMockClock_AdvanceFiresTickers(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewMockClock(start)
	ticker := clk.NewTicker(time.Second)

	clk.Advance(2500 * time.Millisecond)
	if got := len(ticker.C()); got != 2 {
		t.Fatalf("ticks after 2.5s = %d, want 2", got)
	}
	if first := <-ticker.C(); !first.Equal(start.Add(time.Second)) {
		t.Errorf("first tick = %v, want %v", first, start.Add(time.Second))
	}
	if !clk.Now().Equal(start.Add(2500 * time.Millisecond)) {
		t.Errorf("Now() = %v", clk.Now())
	}
}

func TestMockClock_StoppedTickerIsSilent(t *testing.T) {
	clk := NewMockClock(time.Now())
	ticker := clk.NewTicker(time.Second)
	ticker.Stop()
	clk.Advance(5 * time.Second)
	if got := len(ticker.C()); got != 0 {
		t.Errorf("stopped ticker fired %d times", got)
	}
}

func TestMockClock_SetDoesNotTick(t *testing.T) {
	clk := NewMockClock(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))
	ticker := clk.NewTicker(time.Minute)
	next := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	clk.Set(next)
	if !clk.Now().Equal(next) || len(ticker.C()) != 0 {
		t.Errorf("Set() = %v with %d ticks", clk.Now(), len(ticker.C()))
	}
	if !Fixed(next).Now().Equal(next) {
		t.Errorf("Fixed() did not pin the time")
	}
}
