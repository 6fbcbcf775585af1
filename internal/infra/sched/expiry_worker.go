package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/domain/model"
	"gym-membership/internal/infra/metrics"
)

// lapsedExpirer is the part of usecase.MemberUseCase the worker needs.
type lapsedExpirer interface {
	ExpireLapsed(ctx context.Context) ([]*model.Profile, error)
}

// ExpiryWorker periodically deactivates members whose membership has lapsed.
type ExpiryWorker struct {
	interval time.Duration
	members  lapsedExpirer
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, members lapsedExpirer, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		members:  members,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	// catch up immediately after a restart
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	expired, err := w.members.ExpireLapsed(ctx)
	metrics.IncJobRun("expiry", err)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry worker error")
		return
	}
	if len(expired) > 0 {
		w.log.Info().Int("count", len(expired)).Msg("lapsed members deactivated")
	}
}
