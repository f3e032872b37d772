package traffic

import (
	"sync"
	"time"
)

// Clock allows deterministic testing of the counter.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Counter converts cumulative totals into per-second rates.
// The zero value is not usable, create one with NewCounter.
type Counter struct {
	mu    sync.Mutex
	clock Clock

	established bool
	lastSample  time.Time
	lastTotals  Statistics
}

// NewCounter creates a Counter without a baseline. A nil clock uses RealClock.
func NewCounter(clock Clock) *Counter {
	if clock == nil {
		clock = RealClock{}
	}
	return &Counter{clock: clock}
}

// Update records new cumulative totals and returns the rate since the previous call.
// The first call only stores the baseline and reports ok=false.
//
// A channel whose previous total was not positive yields 0, because there is no
// meaningful baseline to difference against. Decreasing counters with a positive
// baseline produce a negative rate; callers treat that as a transient.
func (c *Counter) Update(totals Statistics) (rates Statistics, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	defer func() {
		c.established = true
		c.lastSample = now
		c.lastTotals = totals
	}()

	if !c.established {
		return Statistics{}, false
	}

	elapsedMs := now.Sub(c.lastSample).Milliseconds()
	if elapsedMs < 1 {
		elapsedMs = 1
	}
	factor := 1000.0 / float64(elapsedMs)

	return Statistics{
		Download: channelRate(c.lastTotals.Download, totals.Download, factor),
		Upload:   channelRate(c.lastTotals.Upload, totals.Upload, factor),
	}, true
}

// Reset drops the baseline so the next Update starts over.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.established = false
	c.lastTotals = Statistics{}
	c.lastSample = time.Time{}
}

func channelRate(previous, current int64, factor float64) int64 {
	if previous <= 0 {
		return 0
	}
	// conversion truncates toward zero
	return int64(float64(current-previous) * factor)
}
