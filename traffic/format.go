package traffic

import "fmt"

const (
	rateBps  = "bit/s"
	rateKbps = "KBit/s"
	rateMbps = "MBit/s"
	rateGbps = "GBit/s"
)

// FormatBandwidth renders a bit rate with a binary-scaled unit.
func FormatBandwidth(bitsPerSecond int64) string {
	switch {
	case bitsPerSecond < SizeKB:
		return fmt.Sprintf("%d%s", bitsPerSecond, rateBps)
	case bitsPerSecond < SizeMB:
		return fmt.Sprintf("%.2f%s", float64(bitsPerSecond)/float64(SizeKB), rateKbps)
	case bitsPerSecond < SizeGB:
		return fmt.Sprintf("%.2f%s", float64(bitsPerSecond)/float64(SizeMB), rateMbps)
	default:
		return fmt.Sprintf("%.2f%s", float64(bitsPerSecond)/float64(SizeGB), rateGbps)
	}
}

// fibSteps bounds the search, values past the bound get the last computed term.
const fibSteps = 19

// NearestFib returns the smallest Fibonacci number strictly greater than x.
// It is used to pick a stable plot ceiling for throughput graphs.
func NearestFib(x int64) int64 {
	var f1, f2, k int64 = 0, 1, 0
	for i := 0; i < fibSteps; i++ {
		k = f1 + f2
		if x < k {
			break
		}
		f2 = f1
		f1 = k
	}
	return k
}
