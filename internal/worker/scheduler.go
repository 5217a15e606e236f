package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/service"
)

// Scheduler periodically runs the detector and calculator passes. It is an
// optional in-process stand-in for an external cron trigger; deployments
// with an external scheduler leave it disabled.
type Scheduler struct {
	violations  *service.ViolationService
	escalations *service.EscalationService
	cfg         config.SchedulerConfig
	logger      *zap.Logger
}

// NewScheduler constructs the scheduler.
func NewScheduler(violations *service.ViolationService, escalations *service.EscalationService, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		violations:  violations,
		escalations: escalations,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start launches the tick loop when enabled. It returns immediately; the
// loop stops when ctx is cancelled. Partial passes are safe to abandon:
// every write is idempotent at the store, so the next tick re-evaluates.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	interval := s.cfg.Interval()
	s.logger.Info("sla scheduler started", zap.Duration("interval", interval))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("sla scheduler stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.violations.CheckViolations(ctx); err != nil {
		s.logger.Error("scheduled violation pass failed", zap.Error(err))
	}
	if _, err := s.escalations.CheckEscalations(ctx); err != nil {
		s.logger.Error("scheduled escalation pass failed", zap.Error(err))
	}
}

// RegisterNotificationHandlers subscribes the notification service to
// engine events.
func RegisterNotificationHandlers(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
