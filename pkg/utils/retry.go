package utils

import (
	"math"
	"math/rand"
	"time"
)

// Backoff returns the delay before retry attempt (0-based): exponential
// growth from base with up to 25% jitter, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(max) {
		d = float64(max)
	}
	jitter := d * 0.25 * rand.Float64()
	return time.Duration(d + jitter)
}
