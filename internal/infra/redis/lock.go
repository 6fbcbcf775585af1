// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/infra/metrics"

	"github.com/google/uuid"
)

// ErrLockBusy is returned when the member lock could not be acquired.
var ErrLockBusy = errors.New("member is being updated, try again")

var _ adapter.MemberLocker = (*MemberLocker)(nil)

// MemberLocker serializes renewals of the same member across service instances
// with a SET NX lock per member id.
type MemberLocker struct {
	cli     RedisClient
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewMemberLocker(c RedisClient, ttl time.Duration) *MemberLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &MemberLocker{cli: c, ttl: ttl, retries: 5, backoff: 50 * time.Millisecond}
}

func memberLockKey(id string) string { return fmt.Sprintf("lock:member:%s", id) }

func (l *MemberLocker) Lock(ctx context.Context, memberID string) (func(), error) {
	key := memberLockKey(memberID)
	token := uuid.NewString()
	for i := 0; i < l.retries; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			metrics.IncMemberLock("error")
			return nil, err
		}
		if ok {
			metrics.IncMemberLock("acquired")
			return func() {
				// a fresh context: the request context may already be cancelled
				uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = l.cli.DelIfEquals(uctx, key, token)
			}, nil
		}
		select {
		case <-ctx.Done():
			metrics.IncMemberLock("cancelled")
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	metrics.IncMemberLock("busy")
	return nil, ErrLockBusy
}
