// Package scoring turns a rank position into a score.
//
// A rank maps to a percentile (1.0 best, 0.0 worst), and a Resolver maps the
// percentile through a set of threshold points, either as a step function or
// by linear interpolation, then clamps and optionally rounds to a quarter.
package scoring

// Percentile returns the standing of the album at 0-based index among n
// ranked albums: 1.0 for the best, 0.0 for the worst. A list of zero or one
// albums maps everything to 1.0.
func Percentile(index, n int) float64 {
	if n <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(n-1)
}
