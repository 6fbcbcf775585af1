package model

import (
	"strings"
	"time"

	"gym-membership/internal/domain"

	"github.com/google/uuid"
)

// Plan represents a purchasable membership package with a fixed duration
// and a price in whole Rupiah.
type Plan struct {
	ID           string
	Name         string
	Price        int64
	DurationDays int
	IsActive     bool
	CreatedAt    time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs an active plan. An empty id is replaced by a fresh UUID.
func NewPlan(id, name string, price int64, durationDays int) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" || price < 0 || durationDays < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Plan{
		ID:           id,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}
