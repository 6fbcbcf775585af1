package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/domain/membership"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/infra/metrics"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// DefaultAnalyticsMonths is the length of the analytics series.
const DefaultAnalyticsMonths = 6

type StatsUseCase interface {
	// Dashboard returns pending count and approved revenue for month plus the current active member count.
	Dashboard(ctx context.Context, month string) (*model.Dashboard, error)
	// Analytics returns the last `months` months ending with the current one.
	Analytics(ctx context.Context, months int) (*model.Analytics, error)
}

type statsUC struct {
	profiles repository.ProfileRepository
	trx      repository.TransactionRepository
	now      membership.Clock
	log      *zerolog.Logger
}

func NewStatsUseCase(profiles repository.ProfileRepository, trx repository.TransactionRepository, clock membership.Clock, logger *zerolog.Logger) *statsUC {
	if clock == nil {
		clock = time.Now
	}
	return &statsUC{profiles: profiles, trx: trx, now: clock, log: logger}
}

func (s *statsUC) Dashboard(ctx context.Context, month string) (*model.Dashboard, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Dashboard")()

	from, to, err := monthRange(month, s.now())
	if err != nil {
		return nil, err
	}
	pending, err := s.trx.CountByStatus(ctx, repository.NoTX, model.TransactionStatusPending, from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := s.trx.SumApproved(ctx, repository.NoTX, from, to)
	if err != nil {
		return nil, err
	}
	active := true
	members, err := s.profiles.Count(ctx, repository.NoTX, repository.ProfileFilter{Active: &active, Role: model.RoleUser})
	if err != nil {
		return nil, err
	}
	metrics.SetMembersActive(members)

	return &model.Dashboard{
		Month:         from.Format(MonthLayout),
		Pending:       pending,
		ActiveMembers: members,
		Revenue:       revenue,
	}, nil
}

func (s *statsUC) Analytics(ctx context.Context, months int) (*model.Analytics, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Analytics")()
	if months <= 0 || months > 24 {
		months = DefaultAnalyticsMonths
	}

	current, _, err := monthRange("", s.now())
	if err != nil {
		return nil, err
	}
	out := &model.Analytics{}
	for i := months - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		label := from.Format(MonthLayout)

		revenue, err := s.trx.SumApproved(ctx, repository.NoTX, from, to)
		if err != nil {
			return nil, err
		}
		joined, err := s.profiles.CountCreatedBetween(ctx, repository.NoTX, from, to)
		if err != nil {
			return nil, err
		}
		total, err := s.profiles.Count(ctx, repository.NoTX, repository.ProfileFilter{Role: model.RoleUser, CreatedBefore: to})
		if err != nil {
			return nil, err
		}
		out.MonthlyRevenue = append(out.MonthlyRevenue, model.MonthlyPoint{Month: label, Revenue: revenue})
		out.MemberGrowth = append(out.MemberGrowth, model.MonthlyPoint{Month: label, New: joined, Total: total})
		out.TotalRevenue += revenue
	}

	out.TotalMembers, err = s.profiles.Count(ctx, repository.NoTX, repository.ProfileFilter{Role: model.RoleUser})
	if err != nil {
		return nil, err
	}
	if n := len(out.MonthlyRevenue); n >= 2 {
		out.RevenueGrowth = growthPercent(out.MonthlyRevenue[n-2].Revenue, out.MonthlyRevenue[n-1].Revenue)
		out.MemberGrowthPc = growthPercent(int64(out.MemberGrowth[n-2].New), int64(out.MemberGrowth[n-1].New))
	}
	if out.TotalMembers > 0 {
		out.AvgRevenue = out.TotalRevenue / int64(out.TotalMembers)
	}
	return out, nil
}

// growthPercent is the change from prev to cur in percent. Growth from zero counts as 100%.
func growthPercent(prev, cur int64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return float64(cur-prev) / float64(prev) * 100
}
