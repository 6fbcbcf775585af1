package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gym-membership/internal/infra/metrics"
)

// RateLimiter is a fixed-window counter.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	allowed := count <= int64(limit)
	metrics.IncRateLimit(limitScope(key), allowed)
	return allowed, nil
}

// limitScope extracts "login" from "rate_limit:login:<email>".
func limitScope(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) == 3 && parts[0] == "rate_limit" {
		return parts[1]
	}
	return "other"
}

// Reset clears the counter, e.g. after a successful login.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, key)
}

func LoginKey(email string) string {
	return fmt.Sprintf("rate_limit:login:%s", normalizeEmail(email))
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
