package psychics

import (
	"sync/atomic"
	"time"
)

// TicksPerSecond is the fixed rate the runtime is driven at.
const TicksPerSecond = 20

// TickDuration is the wall-clock length of one tick.
const TickDuration = time.Second / TicksPerSecond

// Clock is the process-wide tick counter.
// Only the driver (Manager.Tick) advances it, exactly once per loop iteration.
// Everything else reads it: cooldowns, channels and projectile lifetimes are all
// expressed as absolute ticks on this clock.
type Clock struct {
	ticks atomic.Int64
}

// NewClock creates a clock starting at tick 0.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current tick.
func (c *Clock) Now() int64 {
	return c.ticks.Load()
}

// Advance moves the clock forward by one tick and returns the new tick.
func (c *Clock) Advance() int64 {
	return c.ticks.Add(1)
}

// TicksToDuration converts a tick count into wall-clock time at the fixed tick rate.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * TickDuration
}
