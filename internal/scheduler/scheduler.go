package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is done.
func Every(ctx context.Context, interval time.Duration, name string, logger *zap.Logger, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("scheduled task failed", zap.String("task", name), zap.Error(err))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
