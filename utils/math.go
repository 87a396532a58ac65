package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ScaleByPct scales n by the fraction pct, rounding to the nearest integer and clamping the
// result to [0, n].
func ScaleByPct(n int, pct float64) int {
	scaled := int(math.Round(float64(n) * pct))
	if scaled < 0 {
		scaled = 0
	} else if scaled > n {
		scaled = n
	}
	return scaled
}
