package ime

import "sync/atomic"

// Clock supplies the current time in milliseconds. Readings must never go
// backwards; their origin is irrelevant since only differences are used.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() int64

// NowMillis calls f.
func (f ClockFunc) NowMillis() int64 {
	return f()
}

// SystemClock reads the platform monotonic clock.
type SystemClock struct{}

// NowMillis returns monotonic milliseconds.
func (SystemClock) NowMillis() int64 {
	return monotonicMillis()
}

// ManualClock is a Clock that only moves when told to. Hosts replaying
// recorded key streams use it, and so do tests.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock returns a ManualClock reading start.
func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// NowMillis returns the current reading.
func (c *ManualClock) NowMillis() int64 {
	return c.now.Load()
}

// Advance moves the clock forward by ms. Negative values are ignored.
func (c *ManualClock) Advance(ms int64) {
	if ms > 0 {
		c.now.Add(ms)
	}
}

// Set moves the clock to ms if that is not earlier than the current reading.
func (c *ManualClock) Set(ms int64) {
	for {
		cur := c.now.Load()
		if ms <= cur || c.now.CompareAndSwap(cur, ms) {
			return
		}
	}
}
