package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/infra/metrics"
)

var _ adapter.ResetTokenStore = (*ResetTokens)(nil)

// ResetTokens stores password reset tokens as "reset:<token>" -> user id.
type ResetTokens struct {
	client RedisClient
}

func NewResetTokens(client RedisClient) *ResetTokens {
	return &ResetTokens{client: client}
}

func resetKey(token string) string { return fmt.Sprintf("reset:%s", token) }

func (s *ResetTokens) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || userID == "" || ttl <= 0 {
		return domain.ErrInvalidArgument
	}
	return s.client.Set(ctx, resetKey(token), userID, ttl)
}

func (s *ResetTokens) Take(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidResetToken
	}
	userID, err := s.client.GetDel(ctx, resetKey(token))
	if err != nil {
		if errors.Is(err, Nil) {
			metrics.IncCacheRequest("reset_token", "miss")
			return "", domain.ErrInvalidResetToken
		}
		metrics.IncCacheRequest("reset_token", "error")
		return "", err
	}
	metrics.IncCacheRequest("reset_token", "hit")
	return userID, nil
}

// ResetKey is the rate limit key for reset requests of one email.
func ResetKey(email string) string {
	return fmt.Sprintf("rate_limit:reset:%s", normalizeEmail(email))
}
