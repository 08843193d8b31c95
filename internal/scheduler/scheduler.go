package scheduler

import (
	"context"
	"time"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"go.uber.org/zap"
)

// AlertChecker runs one full pass of the alert rules
type AlertChecker interface {
	CheckAlerts(ctx context.Context) ([]model.Notification, error)
}

// MaintenanceStore runs the date-bound status sweeps
type MaintenanceStore interface {
	MarkOverdueInvoices(ctx context.Context) (int64, error)
	MarkOverdueTaxEvents(ctx context.Context) (int64, error)
}

// Locker guards a sweep against overlapping replicas. Overlap is safe either
// way because dedup is existence-based; the lock just avoids wasted passes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const alertLockKey = "scheduler:alert-check"

// Scheduler drives the periodic alert checks and daily maintenance sweeps
type Scheduler struct {
	checker       AlertChecker
	maintenance   MaintenanceStore
	locker        Locker
	alertInterval time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
}

// NewScheduler creates a new scheduler. The locker may be nil, in which case
// every tick runs unconditionally.
func NewScheduler(
	checker AlertChecker,
	maintenance MaintenanceStore,
	locker Locker,
	alertInterval time.Duration,
	sweepInterval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		checker:       checker,
		maintenance:   maintenance,
		locker:        locker,
		alertInterval: alertInterval,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

// Start blocks, ticking until the context is cancelled. Run it in its own
// goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	alertTicker := time.NewTicker(s.alertInterval)
	defer alertTicker.Stop()

	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()

	s.logger.Info("Scheduler started",
		zap.Duration("alert_interval", s.alertInterval),
		zap.Duration("sweep_interval", s.sweepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-alertTicker.C:
			s.runAlertCheck(ctx)
		case <-sweepTicker.C:
			s.runMaintenanceSweep(ctx)
		}
	}
}

// RunAlertCheckNow runs a single alert pass outside the ticker cadence
func (s *Scheduler) RunAlertCheckNow(ctx context.Context) {
	s.runAlertCheck(ctx)
}

func (s *Scheduler) runAlertCheck(ctx context.Context) {
	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, alertLockKey, s.alertInterval)
		if err != nil {
			// Lock trouble must not stop alerting; run without it.
			s.logger.Warn("Alert lock unavailable, running unguarded", zap.Error(err))
		} else if !acquired {
			s.logger.Debug("Alert check already running elsewhere, skipping")
			return
		} else {
			defer func() {
				if err := s.locker.Release(ctx, alertLockKey); err != nil {
					s.logger.Warn("Failed to release alert lock", zap.Error(err))
				}
			}()
		}
	}

	alerts, err := s.checker.CheckAlerts(ctx)
	if err != nil {
		s.logger.Error("Alert check failed", zap.Error(err))
		return
	}

	if len(alerts) > 0 {
		s.logger.Info("Alert check generated notifications", zap.Int("count", len(alerts)))
	}
}

func (s *Scheduler) runMaintenanceSweep(ctx context.Context) {
	invoices, err := s.maintenance.MarkOverdueInvoices(ctx)
	if err != nil {
		s.logger.Error("Overdue invoice sweep failed", zap.Error(err))
	} else if invoices > 0 {
		s.logger.Info("Marked invoices overdue", zap.Int64("count", invoices))
	}

	taxEvents, err := s.maintenance.MarkOverdueTaxEvents(ctx)
	if err != nil {
		s.logger.Error("Overdue tax event sweep failed", zap.Error(err))
	} else if taxEvents > 0 {
		s.logger.Info("Marked tax events overdue", zap.Int64("count", taxEvents))
	}
}
