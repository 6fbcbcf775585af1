// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"io"
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
var _ PaymentUseCase = (*paymentUC)(nil)

// ProofUpload is the member's payment receipt.
type ProofUpload struct {
	Filename string
	Body     io.Reader
}

type PaymentUseCase interface {
	// Purchase records a PENDING transaction for an active plan with the uploaded proof.
	Purchase(ctx context.Context, userID, planID string, proof ProofUpload) (*model.Transaction, error)
	// Approve marks a PENDING transaction APPROVED and extends the member by the plan duration.
	Approve(ctx context.Context, trxID string) (*model.Transaction, *model.Profile, error)
	Reject(ctx context.Context, trxID string) (*model.Transaction, error)
	ListPending(ctx context.Context) ([]*model.TransactionView, error)
	ListByUser(ctx context.Context, userID string) ([]*model.TransactionView, error)
	// ListByPeriod returns the month's transactions, optionally narrowed to one status.
	ListByPeriod(ctx context.Context, month string, status model.TransactionStatus) ([]*model.TransactionView, error)
}

type paymentUC struct {
	trx      repository.TransactionRepository
	plans    repository.PlanRepository
	profiles repository.ProfileRepository
	proofs   adapter.ProofStore
	notifier adapter.AdminNotifier
	msgs     Messages
	locker   adapter.MemberLocker
	tm       repository.TransactionManager
	now      membership.Clock
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	trx repository.TransactionRepository,
	plans repository.PlanRepository,
	profiles repository.ProfileRepository,
	proofs adapter.ProofStore,
	notifier adapter.AdminNotifier,
	msgs Messages,
	locker adapter.MemberLocker,
	tm repository.TransactionManager,
	clock membership.Clock,
	logger *zerolog.Logger,
) *paymentUC {
	if clock == nil {
		clock = time.Now
	}
	return &paymentUC{
		trx:      trx,
		plans:    plans,
		profiles: profiles,
		proofs:   proofs,
		notifier: notifier,
		msgs:     msgs,
		locker:   locker,
		tm:       tm,
		now:      clock,
		log:      logger,
	}
}

func (u *paymentUC) Purchase(ctx context.Context, userID, planID string, proof ProofUpload) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Purchase")()

	if proof.Body == nil || proof.Filename == "" {
		return nil, domain.ErrProofRequired
	}
	planID = membership.NormalizePlanID(planID)
	if planID == "" {
		return nil, domain.ErrPlanNotFound
	}
	plan, err := findPlan(ctx, u.plans, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanInactive
	}
	member, err := findMember(ctx, u.profiles, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}

	url, err := u.proofs.Save(ctx, userID, proof.Filename, proof.Body)
	if err != nil {
		return nil, err
	}
	t, err := membership.SelfServicePayment(userID, plan, url, u.now())
	if err == nil {
		err = u.trx.Save(ctx, repository.NoTX, t)
	}
	if err != nil {
		if derr := u.proofs.Delete(ctx, url); derr != nil {
			u.log.Warn().Err(derr).Str("proof", url).Msg("orphaned payment proof")
		}
		return nil, err
	}
	metrics.IncTransaction(string(t.Status), "self_service", t.Amount)

	msg := u.msgs.T("purchase.new", member.Name, member.Email, plan.Name, model.FormatRupiah(t.Amount))
	if err := u.notifier.NotifyAdmins(ctx, msg); err != nil {
		// the transaction is already stored; admins still see it in the pending list
		u.log.Warn().Err(err).Str("trx_id", t.ID).Msg("admin notification failed")
	}
	return t, nil
}

func (u *paymentUC) Approve(ctx context.Context, trxID string) (*model.Transaction, *model.Profile, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Approve")()

	t, err := u.trx.FindByID(ctx, repository.NoTX, trxID)
	if err != nil {
		return nil, nil, err
	}
	if !t.Status.CanTransition(model.TransactionStatusApproved) {
		return nil, nil, domain.ErrInvalidTransition
	}

	unlock, err := lockMember(ctx, u.locker, t.UserID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	now := u.now()
	var member *model.Profile
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.trx.UpdateStatus(ctx, tx, t.ID, model.TransactionStatusPending, model.TransactionStatusApproved, now); err != nil {
			return err
		}
		days := 0
		if t.PlanID != nil {
			plan, err := findPlan(ctx, u.plans, tx, *t.PlanID)
			if err != nil {
				return err
			}
			days = plan.DurationDays
		}
		p, err := findMember(ctx, u.profiles, tx, t.UserID)
		if err != nil {
			return err
		}
		r := membership.ComputeRenewal(p.ExpiredAt, now, days, now)
		if r.Changed {
			p.ExpiredAt, p.IsActive = r.ExpiredAt, r.IsActive
			p.UpdatedAt = now
			if err := u.profiles.Save(ctx, tx, p); err != nil {
				return err
			}
		}
		member = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	t.Status = model.TransactionStatusApproved
	t.UpdatedAt = now
	metrics.IncTransaction(string(t.Status), "self_service", t.Amount)
	metrics.IncMemberRenewed("purchase")
	u.log.Info().Str("trx_id", t.ID).Str("member_id", t.UserID).Time("expired_at", member.ExpiredAt).Msg("payment approved")
	return t, member, nil
}

func (u *paymentUC) Reject(ctx context.Context, trxID string) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Reject")()

	t, err := u.trx.FindByID(ctx, repository.NoTX, trxID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if err := u.trx.UpdateStatus(ctx, repository.NoTX, t.ID, t.Status, model.TransactionStatusRejected, now); err != nil {
		return nil, err
	}
	t.Status = model.TransactionStatusRejected
	t.UpdatedAt = now
	metrics.IncTransaction(string(t.Status), "self_service", 0)
	return t, nil
}

func (u *paymentUC) ListPending(ctx context.Context) ([]*model.TransactionView, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ListPending")()
	return u.trx.List(ctx, repository.NoTX, repository.TransactionFilter{Status: model.TransactionStatusPending})
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string) ([]*model.TransactionView, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ListByUser")()
	return u.trx.List(ctx, repository.NoTX, repository.TransactionFilter{UserID: userID})
}

func (u *paymentUC) ListByPeriod(ctx context.Context, month string, status model.TransactionStatus) ([]*model.TransactionView, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ListByPeriod")()
	from, to, err := monthRange(month, u.now())
	if err != nil {
		return nil, err
	}
	return u.trx.List(ctx, repository.NoTX, repository.TransactionFilter{Status: status, From: from, To: to})
}
