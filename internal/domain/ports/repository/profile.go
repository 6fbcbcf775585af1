package repository

import (
	"context"
	"time"

	"gym-membership/internal/domain/model"
)

// -----------------------------
// Profiles
// -----------------------------

// ProfileFilter narrows List/Count. Zero values mean "no constraint".
type ProfileFilter struct {
	Active        *bool
	Role          model.Role
	Search        string // matched against name and email, case-insensitive
	CreatedBefore time.Time
	Offset        int
	Limit         int
}

type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Profile, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Profile, error)
	List(ctx context.Context, tx Tx, f ProfileFilter) ([]*model.Profile, error)
	Count(ctx context.Context, tx Tx, f ProfileFilter) (int, error)
	Delete(ctx context.Context, tx Tx, id string) error

	// ListLapsed returns active profiles whose expired_at is before now.
	ListLapsed(ctx context.Context, tx Tx, now time.Time) ([]*model.Profile, error)
	// DeactivateByIDs sets is_active=false on the given profiles and returns the number changed.
	DeactivateByIDs(ctx context.Context, tx Tx, ids []string, at time.Time) (int, error)
	// ListExpiring returns active profiles with from <= expired_at <= to, soonest first.
	ListExpiring(ctx context.Context, tx Tx, from, to time.Time) ([]*model.Profile, error)
	// CountCreatedBetween counts profiles created in [from, to).
	CountCreatedBetween(ctx context.Context, tx Tx, from, to time.Time) (int, error)
}
