package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ClosedResolver runs one closed to resolved sweep.
type ClosedResolver interface {
	ResolveStaleClosed(ctx context.Context) ([]int64, error)
}

// RunClosedSweep sweeps once immediately and then every interval until ctx is done.
func RunClosedSweep(ctx context.Context, resolver ClosedResolver, interval time.Duration, logger *zap.Logger) {
	SweepOnce(ctx, resolver, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SweepOnce(ctx, resolver, logger)
		}
	}
}

// SweepOnce runs a single sweep and logs its outcome. Failures are logged and
// reported as zero resolved tickets so the periodic loop keeps going.
func SweepOnce(ctx context.Context, resolver ClosedResolver, logger *zap.Logger) int {
	n, err := Sweep(ctx, resolver, logger)
	if err != nil {
		logger.Error("closed ticket sweep failed", zap.Error(err))
		return 0
	}
	return n
}

// Sweep runs a single sweep and returns how many tickets it resolved.
func Sweep(ctx context.Context, resolver ClosedResolver, logger *zap.Logger) (int, error) {
	ids, err := resolver.ResolveStaleClosed(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve stale closed tickets: %w", err)
	}
	if len(ids) > 0 {
		logger.Info("resolved stale closed tickets", zap.Int("count", len(ids)), zap.Int64s("ticket_ids", ids))
	} else {
		logger.Debug("closed ticket sweep found nothing")
	}
	return len(ids), nil
}
