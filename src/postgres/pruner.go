package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
)

func StartPruner(ctx context.Context, delay time.Duration, keep int, logger *zap.Logger) error {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	logger = logger.Named("pruner")
	for {
		select {
		case <-ticker.C:
			if err := PruneActivity(ctx, keep); err != nil {
				logger.Error(err.Error())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
