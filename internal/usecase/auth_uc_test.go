//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/infra/i18n"
)

func newAuth(f *fixture, limiter AttemptLimiter, attempts int) *authUC {
	reset := PasswordReset{
		Tokens:   f.resets,
		Notifier: f.notifier,
		Messages: i18n.Default(),
		TTL:      30 * time.Minute,
		Attempts: attempts,
		Window:   time.Hour,
		LinkBase: "https://gym.id/update-password?token=",
	}
	return NewAuthUseCase(f.identity, f.profiles, fakeTokens{}, limiter, LoginPolicy{Attempts: attempts, Window: time.Minute}, reset, f.tm, newTestLogger())
}

func TestAuthUseCase_SignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(testNow)
	lim := &fakeLimiter{}
	uc := newAuth(f, lim, 3)

	p, err := uc.SignUp(ctx, SignUpInput{Name: "Rina", Email: " Rina@Gym.ID ", PhoneNumber: "0813", Password: "rahasia"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if p.IsActive || p.HasExpiry() || p.Role != model.RoleUser || p.Email != "rina@gym.id" {
		t.Errorf("unexpected profile: %+v", p)
	}
	if _, ok := f.profiles.items[p.ID]; !ok {
		t.Fatal("profile not stored")
	}

	s, err := uc.Login(ctx, "rina@gym.id", "rahasia")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token != "token-"+p.ID+"-USER" || s.Profile.ID != p.ID {
		t.Errorf("unexpected session: %+v", s)
	}

	if _, err := uc.Login(ctx, "rina@gym.id", "salah"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := uc.SignUp(ctx, SignUpInput{Name: "Rina", Email: "rina@gym.id", Password: "rahasia"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := uc.SignUp(ctx, SignUpInput{Name: "", Email: "x@gym.id", Password: "rahasia"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAuthUseCase_LoginRateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(testNow)
	lim := &fakeLimiter{}
	uc := newAuth(f, lim, 2)
	if _, err := uc.SignUp(ctx, SignUpInput{Name: "Rina", Email: "rina@gym.id", Password: "rahasia"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	t.Run("success resets the counter", func(t *testing.T) {
		_, _ = uc.Login(ctx, "rina@gym.id", "salah")
		if _, err := uc.Login(ctx, "rina@gym.id", "rahasia"); err != nil {
			t.Fatalf("Login: %v", err)
		}
		if n := lim.counts["login:rina@gym.id"]; n != 0 {
			t.Errorf("counter = %d after success", n)
		}
	})

	t.Run("blocked after the allowed attempts", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := uc.Login(ctx, "RINA@gym.id", "salah"); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("attempt %d: %v", i, err)
			}
		}
		if _, err := uc.Login(ctx, "rina@gym.id", "rahasia"); !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		lim.err = errBoom
		defer func() { lim.err = nil }()
		if _, err := uc.Login(ctx, "rina@gym.id", "rahasia"); err != nil {
			t.Fatalf("Login: %v", err)
		}
	})
}

func TestAuthUseCase_ProfileRoleWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(testNow)
	uc := newAuth(f, nil, 0)
	p, err := uc.SignUp(ctx, SignUpInput{Name: "Admin", Email: "admin@gym.id", Password: "rahasia"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	stored := f.profiles.items[p.ID]
	stored.Role = model.RoleAdmin
	f.profiles.items[p.ID] = stored

	s, err := uc.Login(ctx, "admin@gym.id", "rahasia")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token != "token-"+p.ID+"-ADMIN" {
		t.Errorf("token = %s", s.Token)
	}
}

func TestAuthUseCase_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(testNow)
	uc := newAuth(f, nil, 0)
	p, err := uc.SignUp(ctx, SignUpInput{Name: "Rina", Email: "rina@gym.id", Password: "rahasia"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := uc.ChangePassword(ctx, p.ID, "salah", "baru123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := uc.ChangePassword(ctx, p.ID, "rahasia", "baru123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := uc.Login(ctx, "rina@gym.id", "baru123"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestAuthUseCase_PasswordReset(t *testing.T) {
	ctx := context.Background()

	signUp := func(t *testing.T, f *fixture, uc *authUC) *model.Profile {
		t.Helper()
		p, err := uc.SignUp(ctx, SignUpInput{Name: "Rina", Email: "rina@gym.id", Password: "rahasia"})
		if err != nil {
			t.Fatalf("SignUp: %v", err)
		}
		return p
	}
	onlyToken := func(t *testing.T, f *fixture) string {
		t.Helper()
		if len(f.resets.tokens) != 1 {
			t.Fatalf("expected one reset token, got %d", len(f.resets.tokens))
		}
		for tok := range f.resets.tokens {
			return tok
		}
		return ""
	}

	t.Run("link reaches the admins and works once", func(t *testing.T) {
		f := newFixture(testNow)
		uc := newAuth(f, nil, 0)
		p := signUp(t, f, uc)

		if err := uc.RequestPasswordReset(ctx, " RINA@gym.id "); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}
		tok := onlyToken(t, f)
		if f.resets.tokens[tok] != p.ID || f.resets.ttl != 30*time.Minute {
			t.Errorf("unexpected token entry: %q ttl=%s", f.resets.tokens[tok], f.resets.ttl)
		}
		if len(f.notifier.msgs) != 1 || !strings.Contains(f.notifier.msgs[0], "https://gym.id/update-password?token="+tok) {
			t.Fatalf("unexpected notifications: %v", f.notifier.msgs)
		}

		if err := uc.ResetPassword(ctx, tok, "baru123"); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}
		if _, err := uc.Login(ctx, "rina@gym.id", "baru123"); err != nil {
			t.Fatalf("Login with new password: %v", err)
		}
		if err := uc.ResetPassword(ctx, tok, "lagi1234"); !errors.Is(err, domain.ErrInvalidResetToken) {
			t.Fatalf("reused token: expected ErrInvalidResetToken, got %v", err)
		}
	})

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newFixture(testNow)
		uc := newAuth(f, nil, 0)
		if err := uc.RequestPasswordReset(ctx, "ghost@gym.id"); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if len(f.resets.tokens) != 0 || len(f.notifier.msgs) != 0 {
			t.Error("nothing should be issued for an unknown email")
		}
	})

	t.Run("short password keeps the token", func(t *testing.T) {
		f := newFixture(testNow)
		uc := newAuth(f, nil, 0)
		signUp(t, f, uc)
		if err := uc.RequestPasswordReset(ctx, "rina@gym.id"); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}
		tok := onlyToken(t, f)
		if err := uc.ResetPassword(ctx, tok, "abc"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if err := uc.ResetPassword(ctx, tok, "cukup123"); err != nil {
			t.Fatalf("token should still be usable: %v", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(testNow)
		uc := newAuth(f, nil, 0)
		if err := uc.ResetPassword(ctx, "nope", "baru123"); !errors.Is(err, domain.ErrInvalidResetToken) {
			t.Fatalf("expected ErrInvalidResetToken, got %v", err)
		}
	})

	t.Run("requests are rate limited per email", func(t *testing.T) {
		f := newFixture(testNow)
		lim := &fakeLimiter{}
		uc := newAuth(f, lim, 2)
		signUp(t, f, uc)
		for i := 0; i < 2; i++ {
			if err := uc.RequestPasswordReset(ctx, "rina@gym.id"); err != nil {
				t.Fatalf("request %d: %v", i+1, err)
			}
		}
		if err := uc.RequestPasswordReset(ctx, "Rina@gym.id"); !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		if len(f.notifier.msgs) != 2 {
			t.Errorf("notifications = %d", len(f.notifier.msgs))
		}
	})

	t.Run("delivery failure is reported", func(t *testing.T) {
		f := newFixture(testNow)
		uc := newAuth(f, nil, 0)
		signUp(t, f, uc)
		f.notifier.err = errBoom
		if err := uc.RequestPasswordReset(ctx, "rina@gym.id"); !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
	})
}
