package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/membership"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
)

// MonthLayout is the wire format of month parameters.
const MonthLayout = "2006-01"

// monthRange returns [first instant of month, first instant of next month) in now's
// location. An empty month means the month containing now.
func monthRange(month string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	if strings.TrimSpace(month) == "" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	} else {
		m, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(month), now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("month %q: %w", month, domain.ErrInvalidArgument)
		}
		start = m
	}
	return start, start.AddDate(0, 1, 0), nil
}

// fallbackPlan loads the first active plan, or nil when there is none.
func fallbackPlan(ctx context.Context, plans repository.PlanRepository, tx repository.Tx) (*model.Plan, error) {
	all, err := plans.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	return membership.FirstActivePlan(all), nil
}

// findPlan maps a missing plan to domain.ErrPlanNotFound.
func findPlan(ctx context.Context, plans repository.PlanRepository, tx repository.Tx, id string) (*model.Plan, error) {
	p, err := plans.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// findMember maps a missing profile to domain.ErrMemberNotFound.
func findMember(ctx context.Context, profiles repository.ProfileRepository, tx repository.Tx, id string) (*model.Profile, error) {
	p, err := profiles.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return p, nil
}

// resolveManualPayment decides the APPROVED transaction an admin entry records,
// looking up the fallback plan only when no explicit plan was given.
func resolveManualPayment(ctx context.Context, plans repository.PlanRepository, userID, planID string, amount int64, marker string, at time.Time) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	var fallback *model.Plan
	if membership.NormalizePlanID(planID) == "" {
		fb, err := fallbackPlan(ctx, plans, repository.NoTX)
		if err != nil {
			return nil, err
		}
		fallback = fb
	}
	decision, err := membership.ResolvePaymentPlan(planID, amount, fallback)
	if err != nil {
		return nil, err
	}
	return membership.ManualPayment(userID, decision, amount, marker, at)
}

func lockMember(ctx context.Context, l adapter.MemberLocker, id string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	return l.Lock(ctx, id)
}

func orNow(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
