// Package helpers provides numeric clamping utilities.
//
// Derived quantities that must stay within a known range (concurrency
// budgets, latency aggregates) go through these so out-of-range inputs
// collapse to the bounds instead of propagating.
package helpers

// clampInt restricts v to the range [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// ClampInt restricts v to the range [lowerLimit, upperLimit].
func ClampInt(v, lowerLimit, upperLimit int) int {
	return clampInt(v, lowerLimit, upperLimit)
}

// ClampLatencyNs floors a nanosecond latency at zero. Intervals can go
// negative under clock adjustments; aggregates must not absorb that.
func ClampLatencyNs(ns int64) int64 {
	if ns < 0 {
		return 0
	}
	return ns
}
