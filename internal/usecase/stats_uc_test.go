//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
)

func statsFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(testNow, planMonthly)
	f.member("m1", date(2025, 6, 20), true) // joined May
	f.member("m2", date(2025, 5, 20), false)
	late := f.member("m3", date(2025, 7, 1), true)
	late.CreatedAt = date(2025, 6, 1)
	f.profiles.put(late)
	admin := f.member("admin", time.Time{}, true)
	admin.Role = model.RoleAdmin
	f.profiles.put(admin)

	seedTrx(t, f, "a", "m1", planMonthly.ID, 100000, model.TransactionStatusApproved, model.ProofManualCash, date(2025, 5, 2))
	seedTrx(t, f, "b", "m1", planMonthly.ID, 150000, model.TransactionStatusApproved, "/proofs/b.jpg", date(2025, 6, 1))
	seedTrx(t, f, "c", "m3", planMonthly.ID, 25000, model.TransactionStatusApproved, model.ProofManualEdit, date(2025, 6, 1).Add(time.Hour))
	seedTrx(t, f, "d", "m2", planMonthly.ID, 150000, model.TransactionStatusPending, "/proofs/d.jpg", date(2025, 6, 1))
	seedTrx(t, f, "e", "m2", planMonthly.ID, 150000, model.TransactionStatusRejected, "/proofs/e.jpg", date(2025, 6, 1))
	return f
}

func TestStatsUseCase_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := statsFixture(t)
	uc := NewStatsUseCase(f.profiles, f.trx, fixedClock(testNow), newTestLogger())

	tests := []struct {
		month   string
		want    model.Dashboard
		wantErr error
	}{
		{"", model.Dashboard{Month: "2025-06", Pending: 1, ActiveMembers: 2, Revenue: 175000}, nil},
		{"2025-05", model.Dashboard{Month: "2025-05", Pending: 0, ActiveMembers: 2, Revenue: 100000}, nil},
		{"2025-13", model.Dashboard{}, domain.ErrInvalidArgument},
	}
	for _, tc := range tests {
		t.Run("month="+tc.month, func(t *testing.T) {
			got, err := uc.Dashboard(ctx, tc.month)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dashboard: %v", err)
			}
			if *got != tc.want {
				t.Errorf("got %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestStatsUseCase_Analytics(t *testing.T) {
	ctx := context.Background()
	f := statsFixture(t)
	uc := NewStatsUseCase(f.profiles, f.trx, fixedClock(testNow), newTestLogger())

	got, err := uc.Analytics(ctx, 2)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	wantRevenue := []model.MonthlyPoint{{Month: "2025-05", Revenue: 100000}, {Month: "2025-06", Revenue: 175000}}
	wantGrowth := []model.MonthlyPoint{{Month: "2025-05", New: 2, Total: 2}, {Month: "2025-06", New: 1, Total: 3}}
	for i := range wantRevenue {
		if got.MonthlyRevenue[i] != wantRevenue[i] {
			t.Errorf("revenue[%d] = %+v, want %+v", i, got.MonthlyRevenue[i], wantRevenue[i])
		}
		if got.MemberGrowth[i] != wantGrowth[i] {
			t.Errorf("growth[%d] = %+v, want %+v", i, got.MemberGrowth[i], wantGrowth[i])
		}
	}
	if got.TotalRevenue != 275000 || got.TotalMembers != 3 || got.AvgRevenue != 91666 {
		t.Errorf("totals = %d/%d/%d", got.TotalRevenue, got.TotalMembers, got.AvgRevenue)
	}
	if got.RevenueGrowth != 75 || got.MemberGrowthPc != -50 {
		t.Errorf("growth = %v%% revenue, %v%% members", got.RevenueGrowth, got.MemberGrowthPc)
	}

	def, err := uc.Analytics(ctx, 0)
	if err != nil {
		t.Fatalf("Analytics default: %v", err)
	}
	if len(def.MonthlyRevenue) != DefaultAnalyticsMonths || def.MonthlyRevenue[0].Month != "2025-01" {
		t.Errorf("default series = %+v", def.MonthlyRevenue)
	}
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		prev, cur int64
		want      float64
	}{
		{0, 0, 0},
		{0, 10, 100},
		{100, 150, 50},
		{200, 100, -50},
		{50, 50, 0},
	}
	for _, tc := range tests {
		if got := growthPercent(tc.prev, tc.cur); got != tc.want {
			t.Errorf("growthPercent(%d, %d) = %v, want %v", tc.prev, tc.cur, got, tc.want)
		}
	}
}
