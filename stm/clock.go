package stm

import "go.uber.org/atomic"

// Clock is the logical clock shared by transactions. Every successful commit advances it by exactly
// one and uses the new value as its commit date.
type Clock struct {
	now atomic.Uint64
}

// GlobalClock is the process-wide clock used by transactions created with NewTxn. It starts at 0 and
// is never reset.
var GlobalClock = &Clock{}

// NewClock creates an independent clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the date of the latest commit.
func (c *Clock) Now() uint64 {
	return c.now.Load()
}

// Tick advances the clock and returns the new date.
func (c *Clock) Tick() uint64 {
	return c.now.Inc()
}
