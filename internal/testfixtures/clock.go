package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Tests inject it where production
// code takes a now func, then steer it with Set and Advance.
type Clock struct {
	mu sync.Mutex
	at time.Time
}

// NewClock returns a clock pinned to start, or to ReferenceTime when start
// is the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{at: start}
}

// Now reports the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

// NowFunc adapts the clock to the now-func injection point of the services.
// A nil clock falls back to the real time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.at = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.at = c.at.Add(d)
	moved := c.at
	c.mu.Unlock()
	return moved
}

// Current is a readability alias for Now in assertions that only inspect
// the pinned instant.
func (c *Clock) Current() time.Time {
	return c.Now()
}
