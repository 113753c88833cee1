package engine

import (
	"sync"
	"time"
)

// Clock abstracts the wall clock so simulations and tests can run on a
// controlled timeline.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock for tests and scripted runs.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// ElapsedSince computes the simulation window between a recorded
// timestamp and now. A zero last timestamp (fresh account) yields an
// empty window. A negative raw delta is a clock anomaly: the window is
// treated as empty and anomaly is reported so callers can log it.
// Windows longer than max are clamped to max; the excess is discarded,
// never banked.
func ElapsedSince(last, now time.Time, max time.Duration) (elapsed time.Duration, clamped, anomaly bool) {
	if last.IsZero() {
		return 0, false, false
	}
	raw := now.Sub(last)
	if raw < 0 {
		return 0, false, true
	}
	if raw > max {
		return max, true, false
	}
	return raw, false, false
}
