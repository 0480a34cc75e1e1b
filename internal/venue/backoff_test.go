package venue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := DefaultBackoff()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		d := b.Next(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, b.Max+time.Duration(float64(b.Max)*b.Jitter))
		// Attempts 1-6 double from 1s and attempt 7 is the first clamped to
		// 60s; with ±20% jitter each of those still exceeds the one before.
		if attempt <= 7 {
			assert.Greater(t, d, prev)
		}
		prev = d
	}
}

func TestBackoff_FirstAttemptNearMin(t *testing.T) {
	b := Backoff{Min: time.Second, Max: 60 * time.Second, Factor: 2, Jitter: 0}
	assert.Equal(t, time.Second, b.Next(1))
}

func TestBackoff_NeverExceedsMaxPlusJitter(t *testing.T) {
	b := DefaultBackoff()
	d := b.Next(50)
	assert.LessOrEqual(t, d, b.Max+time.Duration(float64(b.Max)*b.Jitter))
}
