package poller

import "time"

// Intervals are the poll interval presets offered to users.
var Intervals = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// DefaultInterval is the preset used when none is configured.
const DefaultInterval = 2 * time.Second

// IsPreset reports whether d is one of Intervals.
func IsPreset(d time.Duration) bool {
	for _, preset := range Intervals {
		if d == preset {
			return true
		}
	}
	return false
}
