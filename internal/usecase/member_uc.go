package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/membership"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/infra/metrics"
)

// Compile-time check
var _ MemberUseCase = (*memberUC)(nil)

// CreateMemberInput is an admin registration. A zero TransactionDate means now.
type CreateMemberInput struct {
	Name            string
	Email           string
	Password        string
	PhoneNumber     string
	DurationDays    int
	PlanID          string
	Amount          int64
	TransactionDate time.Time
}

// UpdateMemberInput is a full admin edit. Empty strings leave fields unchanged.
// ExpiredAt, when set, is used verbatim; otherwise PlanID/ManualDays extend the
// membership from TransactionDate. IsActive only applies when the date does not change.
type UpdateMemberInput struct {
	UserID          string
	Name            string
	PhoneNumber     string
	MemberType      string
	IsActive        *bool
	ExpiredAt       *time.Time
	PlanID          string
	ManualDays      int
	Amount          int64
	TransactionDate time.Time
}

// ExpiringMember is an active member close to (or past) expiration.
type ExpiringMember struct {
	Profile  *model.Profile
	DaysLeft int
	Urgency  membership.Urgency
}

type MemberUseCase interface {
	Create(ctx context.Context, in CreateMemberInput) (*model.Profile, error)
	Update(ctx context.Context, in UpdateMemberInput) (*model.Profile, error)
	Extend(ctx context.Context, userID string, days int, amount int64) (*model.Profile, error)
	Delete(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.Profile, error)
	List(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error)
	ExpireLapsed(ctx context.Context) ([]*model.Profile, error)
	Expiring(ctx context.Context, withinDays int) ([]ExpiringMember, error)
}

type memberUC struct {
	profiles repository.ProfileRepository
	plans    repository.PlanRepository
	trx      repository.TransactionRepository
	identity adapter.IdentityProvider
	locker   adapter.MemberLocker
	tm       repository.TransactionManager
	now      membership.Clock
	log      *zerolog.Logger
}

func NewMemberUseCase(
	profiles repository.ProfileRepository,
	plans repository.PlanRepository,
	trx repository.TransactionRepository,
	identity adapter.IdentityProvider,
	locker adapter.MemberLocker,
	tm repository.TransactionManager,
	clock membership.Clock,
	logger *zerolog.Logger,
) *memberUC {
	if clock == nil {
		clock = time.Now
	}
	return &memberUC{
		profiles: profiles,
		plans:    plans,
		trx:      trx,
		identity: identity,
		locker:   locker,
		tm:       tm,
		now:      clock,
		log:      logger,
	}
}

func (u *memberUC) Create(ctx context.Context, in CreateMemberInput) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Create")()

	now := u.now()
	trxDate := orNow(in.TransactionDate, now)
	profile, err := model.NewProfile("", in.Name, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	// At registration the plan's duration replaces any typed day count.
	planID := membership.NormalizePlanID(in.PlanID)
	days := in.DurationDays
	var plan *model.Plan
	if planID != "" {
		if plan, err = findPlan(ctx, u.plans, repository.NoTX, planID); err != nil {
			return nil, err
		}
		days = plan.DurationDays
	}

	trx, err := resolveManualPayment(ctx, u.plans, profile.ID, planID, in.Amount, model.ProofManualRegistration, trxDate)
	if err != nil {
		return nil, err
	}

	if days > 0 || plan != nil {
		r := membership.ComputeRenewal(time.Time{}, trxDate, days, now)
		profile.ExpiredAt = r.ExpiredAt
		profile.IsActive = r.IsActive
		profile.CreatedAt = trxDate
	}
	profile.UpdatedAt = now

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.identity.CreateUser(ctx, tx, adapter.Credentials{
			UserID:   profile.ID,
			Email:    profile.Email,
			Password: in.Password,
			Role:     model.RoleUser,
		}); err != nil {
			return err
		}
		if err := u.profiles.Save(ctx, tx, profile); err != nil {
			return err
		}
		if trx != nil {
			return u.trx.Save(ctx, tx, trx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if profile.HasExpiry() {
		metrics.IncMemberRenewed("registration")
	}
	if trx != nil {
		metrics.IncTransaction(string(trx.Status), "registration", trx.Amount)
	}
	u.log.Info().Str("member_id", profile.ID).Int("days", days).Int64("amount", in.Amount).Msg("member created")
	return profile, nil
}

func (u *memberUC) Update(ctx context.Context, in UpdateMemberInput) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Update")()

	now := u.now()
	trxDate := orNow(in.TransactionDate, now)
	planID := membership.NormalizePlanID(in.PlanID)

	// every lookup that can fail happens before the first write
	var planDays *int
	if planID != "" {
		plan, err := findPlan(ctx, u.plans, repository.NoTX, planID)
		if err != nil {
			return nil, err
		}
		d := plan.DurationDays
		planDays = &d
	}
	trx, err := resolveManualPayment(ctx, u.plans, in.UserID, planID, in.Amount, model.ProofManualEdit, trxDate)
	if err != nil {
		return nil, err
	}

	unlock, err := lockMember(ctx, u.locker, in.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		out     *model.Profile
		renewed bool
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := findMember(ctx, u.profiles, tx, in.UserID)
		if err != nil {
			return err
		}
		if s := strings.TrimSpace(in.Name); s != "" {
			p.Name = s
		}
		if s := strings.TrimSpace(in.PhoneNumber); s != "" {
			p.PhoneNumber = s
		}
		if s := strings.TrimSpace(in.MemberType); s != "" {
			p.MemberType = s
		}

		switch {
		case in.ExpiredAt != nil:
			r := membership.ApplyExplicitExpiry(*in.ExpiredAt, now)
			p.ExpiredAt, p.IsActive = r.ExpiredAt, r.IsActive
		default:
			if in.IsActive != nil {
				p.IsActive = *in.IsActive
			}
			days := membership.DaysToAdd(in.ManualDays, planDays)
			r := membership.ComputeRenewal(p.ExpiredAt, trxDate, days, now)
			if r.Changed {
				p.ExpiredAt, p.IsActive = r.ExpiredAt, r.IsActive
				renewed = true
			}
		}
		p.UpdatedAt = now

		if err := u.profiles.Save(ctx, tx, p); err != nil {
			return err
		}
		if trx != nil {
			if err := u.trx.Save(ctx, tx, trx); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if renewed {
		metrics.IncMemberRenewed("edit")
	}
	if trx != nil {
		metrics.IncTransaction(string(trx.Status), "edit", trx.Amount)
	}
	return out, nil
}

func (u *memberUC) Extend(ctx context.Context, userID string, days int, amount int64) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Extend")()

	if _, err := findMember(ctx, u.profiles, repository.NoTX, userID); err != nil {
		return nil, err
	}
	now := u.now()
	trx, err := resolveManualPayment(ctx, u.plans, userID, "", amount, model.ProofManualCash, now)
	if err != nil {
		return nil, err
	}

	unlock, err := lockMember(ctx, u.locker, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		out     *model.Profile
		renewed bool
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := findMember(ctx, u.profiles, tx, userID)
		if err != nil {
			return err
		}
		r := membership.ComputeRenewal(p.ExpiredAt, now, days, now)
		if r.Changed {
			renewed = true
			p.ExpiredAt, p.IsActive = r.ExpiredAt, r.IsActive
			p.UpdatedAt = now
			if err := u.profiles.Save(ctx, tx, p); err != nil {
				return err
			}
		}
		if trx != nil {
			if err := u.trx.Save(ctx, tx, trx); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if renewed {
		metrics.IncMemberRenewed("cash")
	}
	if trx != nil {
		metrics.IncTransaction(string(trx.Status), "cash", trx.Amount)
	}
	u.log.Info().Str("member_id", userID).Int("days", days).Time("expired_at", out.ExpiredAt).Msg("member extended")
	return out, nil
}

// Delete removes the account; the profile and its transactions go with it.
func (u *memberUC) Delete(ctx context.Context, userID string) error {
	defer logging.TraceDuration(u.log, "MemberUC.Delete")()
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.profiles.Delete(ctx, tx, userID); err != nil {
			return err
		}
		return u.identity.DeleteUser(ctx, tx, userID)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrMemberNotFound
	}
	return err
}

func (u *memberUC) Get(ctx context.Context, userID string) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Get")()
	return findMember(ctx, u.profiles, repository.NoTX, userID)
}

func (u *memberUC) List(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error) {
	defer logging.TraceDuration(u.log, "MemberUC.List")()
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, err := u.profiles.List(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.profiles.Count(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ExpireLapsed deactivates every active member whose expiration has passed and
// returns them.
func (u *memberUC) ExpireLapsed(ctx context.Context) ([]*model.Profile, error) {
	defer logging.TraceDuration(u.log, "MemberUC.ExpireLapsed")()

	now := u.now()
	lapsed, err := u.profiles.ListLapsed(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	if len(lapsed) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(lapsed))
	for _, p := range lapsed {
		ids = append(ids, p.ID)
	}
	n, err := u.profiles.DeactivateByIDs(ctx, repository.NoTX, ids, now)
	if err != nil {
		return nil, err
	}
	for _, p := range lapsed {
		p.IsActive = false
		p.UpdatedAt = now
	}
	metrics.IncMembersExpired(n)
	u.log.Info().Int("found", len(lapsed)).Int("deactivated", n).Msg("lapsed members deactivated")
	return lapsed, nil
}

// Expiring lists active members whose expiration is at most withinDays away,
// including ones already past it that have not been deactivated yet.
func (u *memberUC) Expiring(ctx context.Context, withinDays int) ([]ExpiringMember, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Expiring")()
	if withinDays <= 0 {
		withinDays = membership.DefaultExpiringWindowDays
	}
	now := u.now()
	list, err := u.profiles.ListExpiring(ctx, repository.NoTX, time.Time{}, now.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}
	out := make([]ExpiringMember, 0, len(list))
	for _, p := range list {
		d := membership.DaysLeft(p.ExpiredAt, now)
		out = append(out, ExpiringMember{Profile: p, DaysLeft: d, Urgency: membership.UrgencyFor(d)})
	}
	return out, nil
}
