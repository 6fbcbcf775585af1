package model

import (
	"strings"
	"time"

	"gym-membership/internal/domain"

	"github.com/oklog/ulid/v2"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"  // member uploaded proof; awaiting admin
	TransactionStatusApproved TransactionStatus = "APPROVED" // terminal
	TransactionStatusRejected TransactionStatus = "REJECTED" // terminal
)

// Proof markers used in place of an uploaded proof for admin-entered payments.
const (
	ProofManualRegistration = "MANUAL_REGISTRATION_ADMIN"
	ProofManualEdit         = "MANUAL_EDIT_ADMIN"
	ProofManualCash         = "MANUAL_CASH_ADMIN"
)

func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch TransactionStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionStatusPending:
		return TransactionStatusPending, true
	case TransactionStatusApproved:
		return TransactionStatusApproved, true
	case TransactionStatusRejected:
		return TransactionStatusRejected, true
	}
	return "", false
}

// CanTransition reports whether a transaction may move from s to next.
// Only PENDING may change, and only to APPROVED or REJECTED.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	if s != TransactionStatusPending {
		return false
	}
	return next == TransactionStatusApproved || next == TransactionStatusRejected
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// Transaction records a membership payment. Amount is whole Rupiah.
// A transaction is never mutated after creation except for its status.
type Transaction struct {
	ID        string // ULID
	UserID    string
	PlanID    *string
	Amount    int64
	Status    TransactionStatus
	ProofURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsManual reports whether the payment was entered by an admin rather than uploaded by the member.
func (t *Transaction) IsManual() bool {
	return t != nil && strings.Contains(t.ProofURL, "MANUAL")
}

// TransactionView is a transaction joined with the member and plan it references,
// as needed by the admin dashboard and reports.
type TransactionView struct {
	Transaction
	MemberName      string
	MemberEmail     string
	MemberExpiredAt time.Time
	PlanName        string
	PlanDuration    int
}

// NewTransaction validates and constructs a transaction with a time-ordered ULID.
// A zero createdAt means now.
func NewTransaction(userID string, planID *string, amount int64, status TransactionStatus, proofURL string, createdAt time.Time) (*Transaction, error) {
	if userID == "" || amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if _, ok := ParseTransactionStatus(string(status)); !ok {
		return nil, domain.ErrInvalidArgument
	}
	if amount > 0 && (planID == nil || *planID == "") {
		return nil, domain.ErrPlanUnresolvable
	}
	now := time.Now()
	if createdAt.IsZero() {
		createdAt = now
	}
	return &Transaction{
		ID:        ulid.Make().String(),
		UserID:    userID,
		PlanID:    planID,
		Amount:    amount,
		Status:    status,
		ProofURL:  proofURL,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}
