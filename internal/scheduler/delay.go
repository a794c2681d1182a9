package scheduler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleep waits for d or until ctx is cancelled, whichever comes first. The
// timer is released on both paths. A cancelled ctx wins even when d <= 0.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Uniform draws a duration from [lo, hi]. hi <= lo yields lo.
func Uniform(r *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.Int64N(int64(hi-lo)+1))
}
