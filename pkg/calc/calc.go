// Package calc holds small arithmetic helpers for progress reporting.
package calc

import (
	"math"
	"time"
)

// Progress returns done/total as a whole percentage clamped to [0, 100].
func Progress(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}

	p := int(math.Round(float64(done) / float64(total) * 100))
	if p > 100 {
		return 100
	}

	return p
}

// ETA extrapolates the remaining time from the elapsed time spent on done of total units.
func ETA(done, total int, elapsed time.Duration) time.Duration {
	if total <= 0 || done <= 0 || done >= total {
		return 0
	}

	return time.Duration(float64(elapsed) * (float64(total)/float64(done) - 1))
}
