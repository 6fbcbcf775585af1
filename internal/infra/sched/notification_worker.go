package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/infra/metrics"
)

type expiringNotifier interface {
	NotifyExpiring(ctx context.Context, withinDays int) (int, error)
}

// NotificationWorker sends admins the digest of members about to expire.
type NotificationWorker struct {
	interval   time.Duration
	withinDays int
	notifUC    expiringNotifier
	log        *zerolog.Logger
}

func NewNotificationWorker(interval time.Duration, withinDays int, notifUC expiringNotifier, logger *zerolog.Logger) *NotificationWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "NotificationWorker").Logger()
	return &NotificationWorker{
		interval:   interval,
		withinDays: withinDays,
		notifUC:    notifUC,
		log:        &compLog,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting notification worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping notification worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *NotificationWorker) runCheck(ctx context.Context) {
	sent, err := w.notifUC.NotifyExpiring(ctx, w.withinDays)
	metrics.IncJobRun("expiring_digest", err)
	if err != nil {
		w.log.Error().Err(err).Msg("expiring digest failed")
		return
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiring digest sent")
	}
}
