package bookingRequest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const defaultSweepBatch = 200

// SweepOnce expires every pending request whose deadline has passed. A store error aborts the pass;
// the next tick picks up whatever is left since each transition is guarded.
func (e *Engine) SweepOnce(ctx context.Context) (int, error) {
	expired := 0
	for {
		now := e.clock.Now()
		batch, err := e.requests.ListPendingExpired(ctx, now, defaultSweepBatch)
		if err != nil {
			return expired, fmt.Errorf("failed to list expired requests: %w", err)
		}

		won := 0
		for i := range batch {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
			ok, err := e.expire(ctx, &batch[i], now)
			if err != nil {
				return expired, fmt.Errorf("failed to expire request %s: %w", batch[i].ID, err)
			}
			if ok {
				won++
			}
		}
		expired += won

		if len(batch) < defaultSweepBatch || won == 0 {
			break
		}
	}

	if expired > 0 {
		e.logger.Info("Expired stale booking requests", zap.Int("count", expired))
	}
	return expired, nil
}
