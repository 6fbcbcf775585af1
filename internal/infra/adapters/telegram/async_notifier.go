package telegram

import (
	"context"
	"time"

	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/infra/worker"
)

var _ adapter.AdminNotifier = (*AsyncNotifier)(nil)

// AsyncNotifier hands messages to a worker pool so callers do not wait on Telegram.
// NotifyAdmins only fails when the pool is saturated.
type AsyncNotifier struct {
	next    adapter.AdminNotifier
	pool    *worker.Pool
	timeout time.Duration
}

func NewAsyncNotifier(next adapter.AdminNotifier, pool *worker.Pool, timeout time.Duration) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncNotifier{next: next, pool: pool, timeout: timeout}
}

func (a *AsyncNotifier) NotifyAdmins(_ context.Context, text string) error {
	return a.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.next.NotifyAdmins(ctx, text)
	})
}
