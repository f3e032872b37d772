// Package traffic derives per-second bit rates from modem traffic counters.
package traffic

// Statistics holds a download/upload pair in bits.
// Depending on Mode it is either a rate (bits/s) or a cumulative total (bits).
type Statistics struct {
	// Download direction
	Download int64

	// Upload direction
	Upload int64
}

// Mode tells the consumer how to interpret a Statistics value reported by a modem.
type Mode int

const (
	// Absolute values are already instantaneous rates in bits/s.
	Absolute Mode = iota

	// Cumulative values are running totals that need differencing.
	Cumulative
)

func (m Mode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case Cumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

// Binary size units used for counters and formatting.
const (
	SizeKB int64 = 1024
	SizeMB       = 1024 * SizeKB
	SizeGB       = 1024 * SizeMB
	SizeTB       = 1024 * SizeGB
)

// SanityCeiling is the largest byte counter a modem may plausibly report.
// Anything above it is treated as garbage.
const SanityCeiling = SizeTB
