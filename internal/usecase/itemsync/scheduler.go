package itemsync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs Reconcile periodically until its context is canceled.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a periodic reconciler. A non-positive interval disables it.
func NewScheduler(svc *Service, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		svc:      svc,
		interval: interval,
		logger:   logger.With(zap.String("component", "reconcile_scheduler")),
	}
}

// Run blocks until ctx is canceled, reconciling once per interval.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Debug("Periodic reconciliation disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Periodic reconciliation started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Periodic reconciliation stopped")
			return
		case <-ticker.C:
			s.svc.Reconcile(ctx)
		}
	}
}
