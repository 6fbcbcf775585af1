package membership

import (
	"strings"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
)

// NormalizePlanID maps the absent-value sentinels that forms send ("", "null", "undefined")
// to the empty string.
func NormalizePlanID(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return ""
	}
	return s
}

// PlanDecision is the outcome of ResolvePaymentPlan.
type PlanDecision struct {
	PlanID string
	Record bool // whether a transaction should be written at all
}

// ResolvePaymentPlan decides which plan a payment of amount is recorded against.
//
// Nothing is recorded for amount <= 0. An explicit plan id is used as-is (existence
// is the store's concern). Otherwise the fallback plan is used; with no fallback the
// payment cannot be recorded and domain.ErrPlanUnresolvable is returned.
func ResolvePaymentPlan(explicitPlanID string, amount int64, fallback *model.Plan) (PlanDecision, error) {
	if amount <= 0 {
		return PlanDecision{}, nil
	}
	if id := NormalizePlanID(explicitPlanID); id != "" {
		return PlanDecision{PlanID: id, Record: true}, nil
	}
	if !fallback.IsZero() {
		return PlanDecision{PlanID: fallback.ID, Record: true}, nil
	}
	return PlanDecision{}, domain.ErrPlanUnresolvable
}

// FirstActivePlan returns the earliest-created active plan, or nil.
// Ties on CreatedAt keep the input order.
func FirstActivePlan(plans []*model.Plan) *model.Plan {
	var first *model.Plan
	for _, p := range plans {
		if p == nil || !p.IsActive {
			continue
		}
		if first == nil || p.CreatedAt.Before(first.CreatedAt) {
			first = p
		}
	}
	return first
}

// ManualPayment builds the APPROVED transaction an admin entry produces.
// It returns nil when the decision says nothing should be recorded.
func ManualPayment(userID string, decision PlanDecision, amount int64, marker string, at time.Time) (*model.Transaction, error) {
	if !decision.Record {
		return nil, nil
	}
	planID := decision.PlanID
	return model.NewTransaction(userID, &planID, amount, model.TransactionStatusApproved, marker, at)
}

// SelfServicePayment builds the PENDING transaction a member's purchase produces.
// The proof reference is mandatory.
func SelfServicePayment(userID string, plan *model.Plan, proofURL string, at time.Time) (*model.Transaction, error) {
	if plan.IsZero() {
		return nil, domain.ErrPlanUnresolvable
	}
	if strings.TrimSpace(proofURL) == "" {
		return nil, domain.ErrProofRequired
	}
	planID := plan.ID
	return model.NewTransaction(userID, &planID, plan.Price, model.TransactionStatusPending, proofURL, at)
}
