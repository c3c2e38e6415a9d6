package registry

import (
	"sync"
	"time"
)

// Clock supplies the update timestamps stamped onto price records. Units are
// host-defined (seconds for the system clock); values must be monotonically
// non-decreasing across calls.
type Clock interface {
	Now() uint64
}

// SystemClock reads Unix seconds from the wall clock, clamped so that
// successive reads never go backwards.
type SystemClock struct {
	mu   sync.Mutex
	last uint64
}

// NewSystemClock creates a system clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current Unix time in seconds.
func (c *SystemClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := uint64(time.Now().Unix())
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

// ManualClock is a settable clock for tests and standalone mode.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by delta.
func (c *ManualClock) Advance(delta uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += delta
}

// Set moves the clock to the given time. The new time must not be earlier
// than the current one; earlier values are ignored.
func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now > c.now {
		c.now = now
	}
}
