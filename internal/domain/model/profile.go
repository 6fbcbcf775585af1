package model

import (
	"strings"
	"time"

	"gym-membership/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DefaultMemberType is assigned to members enrolled by an admin.
const DefaultMemberType = "Reguler"

// Profile is a gym member (or admin) as stored by the backend.
// IsActive must always agree with ExpiredAt relative to the time of the last mutation.
type Profile struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	IsActive    bool
	ExpiredAt   time.Time // zero for members that never had a membership
	MemberType  string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProfile(id, name, email, phone string) (*Profile, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &Profile{
		ID:          id,
		Name:        name,
		Email:       email,
		PhoneNumber: strings.TrimSpace(phone),
		MemberType:  DefaultMemberType,
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Profile) IsZero() bool  { return p == nil || p.ID == "" }
func (p *Profile) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// HasExpiry reports whether the member ever had an expiration date assigned.
func (p *Profile) HasExpiry() bool { return p != nil && !p.ExpiredAt.IsZero() }
