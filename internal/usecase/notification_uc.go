package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gym-membership/internal/domain/membership"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// Messages renders admin-facing message templates by key.
type Messages interface {
	T(key string, args ...any) string
}

type NotificationUseCase interface {
	// NotifyExpiring sends admins the list of members expiring within N days and returns how many were listed.
	NotifyExpiring(ctx context.Context, withinDays int) (int, error)
	// RemindPending tells admins about PENDING payments older than age and returns how many.
	RemindPending(ctx context.Context, age time.Duration) (int, error)
}

type notificationUC struct {
	members  MemberUseCase
	trx      repository.TransactionRepository
	notifier adapter.AdminNotifier
	msgs     Messages
	now      membership.Clock
	log      *zerolog.Logger
}

func NewNotificationUseCase(members MemberUseCase, trx repository.TransactionRepository, notifier adapter.AdminNotifier, msgs Messages, clock membership.Clock, logger *zerolog.Logger) *notificationUC {
	if clock == nil {
		clock = time.Now
	}
	return &notificationUC{members: members, trx: trx, notifier: notifier, msgs: msgs, now: clock, log: logger}
}

func (n *notificationUC) NotifyExpiring(ctx context.Context, withinDays int) (int, error) {
	items, err := n.members.Expiring(ctx, withinDays)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString(n.msgs.T("expiring.header", len(items)))
	b.WriteByte('\n')
	for _, it := range items {
		b.WriteString(n.msgs.T("expiring.line", it.Urgency, it.Profile.Name, it.Profile.Email, n.daysLeftText(it.DaysLeft)))
		b.WriteByte('\n')
	}
	if err := n.notifier.NotifyAdmins(ctx, b.String()); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (n *notificationUC) RemindPending(ctx context.Context, age time.Duration) (int, error) {
	items, err := n.trx.ListPendingOlderThan(ctx, repository.NoTX, n.now().Add(-age), 20)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString(n.msgs.T("pending.header", len(items)))
	b.WriteByte('\n')
	for _, t := range items {
		b.WriteString(n.msgs.T("pending.line", t.MemberName, t.PlanName, model.FormatRupiah(t.Amount)))
		b.WriteByte('\n')
	}
	if err := n.notifier.NotifyAdmins(ctx, b.String()); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (n *notificationUC) daysLeftText(d int) string {
	if d <= 0 {
		return n.msgs.T("expiring.expired")
	}
	return n.msgs.T("expiring.days_left", d)
}
