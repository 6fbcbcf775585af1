package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/domain/membership"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/logging"
)

// Compile-time check
var _ ReportUseCase = (*reportUC)(nil)

const (
	ReportManualPlanLabel = "Manual (Cash)"
	ReportPaidStatus      = "LUNAS"
)

// ReportRow is one approved payment in the monthly report.
type ReportRow struct {
	Date        time.Time
	MemberName  string
	MemberEmail string
	PlanName    string
	Amount      int64
	Status      string
}

// MonthlyReport lists the approved payments of one month, oldest first.
type MonthlyReport struct {
	Month string
	Rows  []ReportRow
	Total int64
}

type ReportUseCase interface {
	Monthly(ctx context.Context, month string) (*MonthlyReport, error)
}

type reportUC struct {
	trx repository.TransactionRepository
	now membership.Clock
	log *zerolog.Logger
}

func NewReportUseCase(trx repository.TransactionRepository, clock membership.Clock, logger *zerolog.Logger) *reportUC {
	if clock == nil {
		clock = time.Now
	}
	return &reportUC{trx: trx, now: clock, log: logger}
}

func (r *reportUC) Monthly(ctx context.Context, month string) (*MonthlyReport, error) {
	defer logging.TraceDuration(r.log, "ReportUC.Monthly")()

	from, to, err := monthRange(month, r.now())
	if err != nil {
		return nil, err
	}
	views, err := r.trx.List(ctx, repository.NoTX, repository.TransactionFilter{
		Status:    model.TransactionStatusApproved,
		From:      from,
		To:        to,
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}

	rep := &MonthlyReport{Month: from.Format(MonthLayout), Rows: make([]ReportRow, 0, len(views))}
	for _, v := range views {
		row := ReportRow{
			Date:        v.CreatedAt,
			MemberName:  v.MemberName,
			MemberEmail: v.MemberEmail,
			PlanName:    v.PlanName,
			Amount:      v.Amount,
			Status:      ReportPaidStatus,
		}
		if row.MemberName == "" {
			row.MemberName = "Tanpa Nama"
		}
		if row.MemberEmail == "" {
			row.MemberEmail = "-"
		}
		if row.PlanName == "" {
			row.PlanName = "-"
		}
		if v.IsManual() {
			row.PlanName = ReportManualPlanLabel
		}
		rep.Rows = append(rep.Rows, row)
		rep.Total += v.Amount
	}
	return rep, nil
}
