package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/infra/metrics"
)

type pendingReminderUC interface {
	RemindPending(ctx context.Context, age time.Duration) (int, error)
}

// PendingReminder periodically reminds admins about payment proofs that have
// been waiting for approval longer than staleAfter.
type PendingReminder struct {
	uc         pendingReminderUC
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPendingReminder(uc pendingReminderUC, interval, staleAfter time.Duration, logger *zerolog.Logger) *PendingReminder {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "PendingReminder").Logger()
	return &PendingReminder{uc: uc, interval: interval, staleAfter: staleAfter, log: &compLog}
}

func (w *PendingReminder) Run(ctx context.Context) error {
	w.log.Info().Dur("stale_after", w.staleAfter).Msg("Starting pending reminder")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pending reminder")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PendingReminder) tick(ctx context.Context) {
	n, err := w.uc.RemindPending(ctx, w.staleAfter)
	metrics.IncJobRun("pending_reminder", err)
	if err != nil {
		w.log.Error().Err(err).Msg("pending reminder failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("admins reminded about pending payments")
	}
}
