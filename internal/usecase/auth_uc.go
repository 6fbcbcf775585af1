package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/infra/metrics"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string, role model.Role) (token string, expiresAt time.Time, err error)
}

// AttemptLimiter throttles login attempts per key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type SignUpInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Password    string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Profile   *model.Profile
}

type AuthUseCase interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.Profile, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// RequestPasswordReset issues a single-use reset link for the account. Unknown
	// emails succeed silently so the endpoint does not reveal which accounts exist.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// LoginPolicy bounds failed logins per email.
type LoginPolicy struct {
	Attempts int
	Window   time.Duration
	KeyFunc  func(email string) string
}

// PasswordReset configures the forgot-password flow. There is no mail channel:
// the link goes to the admin chat and the front desk hands it to the member.
type PasswordReset struct {
	Tokens   adapter.ResetTokenStore
	Notifier adapter.AdminNotifier
	Messages Messages
	TTL      time.Duration
	// Attempts per Window per email before reset requests are refused.
	Attempts int
	Window   time.Duration
	LinkBase string // the token is appended
	KeyFunc  func(email string) string
}

type authUC struct {
	identity adapter.IdentityProvider
	profiles repository.ProfileRepository
	tokens   TokenIssuer
	limiter  AttemptLimiter
	policy   LoginPolicy
	reset    PasswordReset
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

// NewAuthUseCase wires authentication. limiter may be nil to disable throttling.
func NewAuthUseCase(
	identity adapter.IdentityProvider,
	profiles repository.ProfileRepository,
	tokens TokenIssuer,
	limiter AttemptLimiter,
	policy LoginPolicy,
	reset PasswordReset,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *authUC {
	if policy.KeyFunc == nil {
		policy.KeyFunc = func(email string) string { return "login:" + strings.ToLower(strings.TrimSpace(email)) }
	}
	if reset.KeyFunc == nil {
		reset.KeyFunc = func(email string) string { return "reset:" + strings.ToLower(strings.TrimSpace(email)) }
	}
	if reset.TTL <= 0 {
		reset.TTL = time.Hour
	}
	return &authUC{
		identity: identity,
		profiles: profiles,
		tokens:   tokens,
		limiter:  limiter,
		policy:   policy,
		reset:    reset,
		tm:       tm,
		log:      logger,
	}
}

// SignUp registers a self-service member. The profile starts inactive with no
// expiration until a purchase is approved.
func (a *authUC) SignUp(ctx context.Context, in SignUpInput) (*model.Profile, error) {
	defer logging.TraceDuration(a.log, "AuthUC.SignUp")()

	p, err := model.NewProfile("", in.Name, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	err = a.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := a.identity.CreateUser(ctx, tx, adapter.Credentials{
			UserID:   p.ID,
			Email:    p.Email,
			Password: in.Password,
			Role:     model.RoleUser,
		}); err != nil {
			return err
		}
		return a.profiles.Save(ctx, tx, p)
	})
	if err != nil {
		metrics.IncAuthAttempt("signup", "error")
		return nil, err
	}
	metrics.IncAuthAttempt("signup", "ok")
	return p, nil
}

func (a *authUC) Login(ctx context.Context, email, password string) (*Session, error) {
	defer logging.TraceDuration(a.log, "AuthUC.Login")()

	key := a.policy.KeyFunc(email)
	if a.limiter != nil && a.policy.Attempts > 0 {
		ok, err := a.limiter.Allow(ctx, key, a.policy.Attempts, a.policy.Window)
		if err != nil {
			// fail open: a cache outage must not lock everyone out
			a.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if !ok {
			metrics.IncAuthAttempt("login", "limited")
			return nil, domain.ErrRateLimited
		}
	}

	userID, role, err := a.identity.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.IncAuthAttempt("login", "invalid")
		}
		return nil, err
	}
	p, err := findMember(ctx, a.profiles, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	// the profile is authoritative for the role
	if p.Role != "" {
		role = p.Role
	}
	token, exp, err := a.tokens.Issue(userID, role)
	if err != nil {
		return nil, err
	}
	if a.limiter != nil {
		_ = a.limiter.Reset(ctx, key)
	}
	metrics.IncAuthAttempt("login", "ok")
	return &Session{Token: token, ExpiresAt: exp, Profile: p}, nil
}

func (a *authUC) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	defer logging.TraceDuration(a.log, "AuthUC.ChangePassword")()
	return a.identity.ChangePassword(ctx, userID, oldPassword, newPassword)
}

func (a *authUC) RequestPasswordReset(ctx context.Context, email string) error {
	defer logging.TraceDuration(a.log, "AuthUC.RequestPasswordReset")()

	if a.reset.Tokens == nil || a.reset.Notifier == nil || a.reset.Messages == nil {
		return fmt.Errorf("password reset not configured: %w", domain.ErrOperationFailed)
	}
	if a.limiter != nil && a.reset.Attempts > 0 {
		ok, err := a.limiter.Allow(ctx, a.reset.KeyFunc(email), a.reset.Attempts, a.reset.Window)
		if err != nil {
			a.log.Warn().Err(err).Msg("reset limiter unavailable")
		} else if !ok {
			metrics.IncAuthAttempt("reset_request", "limited")
			return domain.ErrRateLimited
		}
	}

	p, err := a.profiles.FindByEmail(ctx, repository.NoTX, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMemberNotFound) {
			metrics.IncAuthAttempt("reset_request", "unknown")
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := a.reset.Tokens.Put(ctx, token, p.ID, a.reset.TTL); err != nil {
		return err
	}
	msg := a.reset.Messages.T("reset.requested", p.Name, p.Email, a.reset.TTL.String(), a.reset.LinkBase+token)
	if err := a.reset.Notifier.NotifyAdmins(ctx, msg); err != nil {
		return err
	}
	metrics.IncAuthAttempt("reset_request", "ok")
	a.log.Info().Str("member_id", p.ID).Msg("password reset requested")
	return nil
}

func (a *authUC) ResetPassword(ctx context.Context, token, newPassword string) error {
	defer logging.TraceDuration(a.log, "AuthUC.ResetPassword")()

	if a.reset.Tokens == nil {
		return fmt.Errorf("password reset not configured: %w", domain.ErrOperationFailed)
	}
	// validated before the token is consumed so a typo does not burn the link
	if len(newPassword) < adapter.MinPasswordLen {
		return domain.ErrInvalidArgument
	}
	userID, err := a.reset.Tokens.Take(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			metrics.IncAuthAttempt("reset", "invalid")
		}
		return err
	}
	if err := a.identity.SetPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	metrics.IncAuthAttempt("reset", "ok")
	return nil
}
