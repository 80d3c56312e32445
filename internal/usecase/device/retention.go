package device

import (
	"context"
	"time"

	"educafric-tracking/internal/logger"

	"go.uber.org/zap"
)

// StartRetentionJob prunes location history older than retention every
// interval until ctx is cancelled. The cached current location is kept.
func (s *Service) StartRetentionJob(ctx context.Context, retention, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Location retention job started",
		zap.Duration("retention", retention),
		zap.Duration("interval", interval),
	)

	s.pruneHistory(ctx, retention)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Location retention job stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, retention)
		}
	}
}

func (s *Service) pruneHistory(ctx context.Context, retention time.Duration) int64 {
	cutoff := s.now().Add(-retention)
	deleted, err := s.locationRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		logger.Error("Failed to prune location history", zap.Error(err))
		return 0
	}

	logger.Debug("Location history pruned",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted
}
