package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// UniformDuration returns a duration drawn uniformly from [min, max].
// Swapped bounds are tolerated.
func UniformDuration(min, max time.Duration) time.Duration {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
