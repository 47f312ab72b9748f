package vt

import "math"

// Clamp bounds a possibly-garbage numeric request (JSON numbers arrive as
// float64) into [lo, hi], falling back to def for NaN.
func Clamp(v float64, lo, hi, def int) int {
	if math.IsNaN(v) {
		return def
	}
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
