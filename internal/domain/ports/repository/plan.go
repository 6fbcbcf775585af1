package repository

import (
	"context"

	"gym-membership/internal/domain/model"
)

// PlanRepository is the port for plan persistence.
// ListAll returns plans in creation order; the first active one is the payment fallback.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
