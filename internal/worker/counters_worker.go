package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// CountRefresher refreshes the per-scope ticket counters.
type CountRefresher interface {
	RefreshCounts(ctx context.Context) ([]service.Counter, error)
}

// RunCounterRefresh refreshes counters every interval until ctx is done or
// the helpdesk session is gone. A non-positive interval disables it.
func RunCounterRefresh(ctx context.Context, refresher CountRefresher, interval time.Duration, logger *zap.Logger) {
	if refresher == nil || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("counter refresh started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("counter refresh stopped")
			return
		case <-ticker.C:
			_, err := refresher.RefreshCounts(ctx)
			if err == nil {
				continue
			}
			if apperrors.Is(err, apperrors.CodeUnauthenticated) {
				logger.Warn("counter refresh stopped: session expired", zap.Error(err))
				return
			}
			logger.Debug("counter refresh incomplete", zap.Error(err))
		}
	}
}
