package testfixtures

import (
	"sync"
	"time"
)

var referenceTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// ReferenceTime is the instant fixtures start from, nine days before the
// default session window opens.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a controllable time source safe for use from several goroutines.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection. A nil clock falls back to wall time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// PastExpiry moves the clock to the moment a room created with the default
// window expires.
func (c *Clock) PastExpiry() time.Time {
	expiry := time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC)
	c.Set(expiry)
	return expiry
}
