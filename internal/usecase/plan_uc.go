package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/logging"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUpdate carries the fields to change; nil leaves a field as is.
type PlanUpdate struct {
	Name         *string
	Price        *int64
	DurationDays *int
	IsActive     *bool
}

// PlanUseCase manages membership plans.
type PlanUseCase interface {
	Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error)
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Plan, error)
	Update(ctx context.Context, id string, upd PlanUpdate) (*model.Plan, error)
	// Deactivate hides a plan from purchase. Plans are never hard-deleted because
	// transactions keep referencing them.
	Deactivate(ctx context.Context, id string) error
	// Fallback returns the plan payments are recorded against when none is chosen.
	Fallback(ctx context.Context) (*model.Plan, error)
}

type planUC struct {
	repo repository.PlanRepository
	log  *zerolog.Logger
}

func NewPlanUseCase(repo repository.PlanRepository, logger *zerolog.Logger) *planUC {
	return &planUC{repo: repo, log: logger}
}

func (uc *planUC) Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error) {
	defer logging.TraceDuration(uc.log, "PlanUC.Create")()
	p, err := model.NewPlan("", name, price, durationDays)
	if err != nil {
		return nil, err
	}
	all, err := uc.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, existing := range all {
		if existing.IsActive && strings.EqualFold(existing.Name, p.Name) {
			return nil, domain.ErrAlreadyExists
		}
	}
	if err := uc.repo.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", p.ID).Str("name", p.Name).Msg("plan created")
	return p, nil
}

func (uc *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	defer logging.TraceDuration(uc.log, "PlanUC.Get")()
	return findPlan(ctx, uc.repo, repository.NoTX, id)
}

func (uc *planUC) List(ctx context.Context, activeOnly bool) ([]*model.Plan, error) {
	defer logging.TraceDuration(uc.log, "PlanUC.List")()
	all, err := uc.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return all, nil
	}
	out := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (uc *planUC) Update(ctx context.Context, id string, upd PlanUpdate) (*model.Plan, error) {
	defer logging.TraceDuration(uc.log, "PlanUC.Update")()
	p, err := findPlan(ctx, uc.repo, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, domain.ErrInvalidArgument
		}
		p.Name = name
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, domain.ErrInvalidArgument
		}
		p.Price = *upd.Price
	}
	if upd.DurationDays != nil {
		if *upd.DurationDays < 0 {
			return nil, domain.ErrInvalidArgument
		}
		p.DurationDays = *upd.DurationDays
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if err := uc.repo.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *planUC) Deactivate(ctx context.Context, id string) error {
	defer logging.TraceDuration(uc.log, "PlanUC.Deactivate")()
	p, err := findPlan(ctx, uc.repo, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return nil
	}
	p.IsActive = false
	return uc.repo.Save(ctx, repository.NoTX, p)
}

func (uc *planUC) Fallback(ctx context.Context) (*model.Plan, error) {
	p, err := fallbackPlan(ctx, uc.repo, repository.NoTX)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPlanUnresolvable
	}
	return p, nil
}
