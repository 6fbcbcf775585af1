package repository

import (
	"context"
	"time"

	"gym-membership/internal/domain/model"
)

// -----------------------------
// Transactions (payments)
// -----------------------------

// TransactionFilter narrows List. From is inclusive, To exclusive.
type TransactionFilter struct {
	UserID string
	Status model.TransactionStatus
	From   time.Time
	To     time.Time
	// Ascending orders by created_at oldest first; default is newest first.
	Ascending bool
	Limit     int
}

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	// UpdateStatus moves a transaction from one status to another. It returns
	// domain.ErrInvalidTransition when the row is not currently in `from`.
	UpdateStatus(ctx context.Context, tx Tx, id string, from, to model.TransactionStatus, at time.Time) error
	List(ctx context.Context, tx Tx, f TransactionFilter) ([]*model.TransactionView, error)
	CountByStatus(ctx context.Context, tx Tx, status model.TransactionStatus, from, to time.Time) (int, error)
	SumApproved(ctx context.Context, tx Tx, from, to time.Time) (int64, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.TransactionView, error)
}
