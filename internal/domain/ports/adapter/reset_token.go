package adapter

import (
	"context"
	"time"
)

// ResetTokenStore keeps password reset tokens. Take consumes the token, so each
// one works at most once; unknown or expired tokens yield domain.ErrInvalidResetToken.
type ResetTokenStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Take(ctx context.Context, token string) (userID string, err error)
}
