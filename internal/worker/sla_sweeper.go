package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/service"
)

// Sweeper runs one SLA sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// StartSLASweeper runs sweeper every interval until ctx is cancelled.
// A zero interval leaves scheduling to an external caller of POST /sla/sweep.
// The returned channel is closed once the loop has exited.
func StartSLASweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Info("sla sweeper started", zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("sla sweeper stopped")
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, interval)
				if _, err := sweeper.Sweep(runCtx); err != nil {
					logger.Warn("sla sweep failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
	return done
}
