package adapter

import (
	"context"

	"gym-membership/internal/domain/model"
)

// MinPasswordLen is enforced on sign-up, password change and reset.
const MinPasswordLen = 6

// Credentials are what the identity service needs to register an account.
type Credentials struct {
	UserID   string // optional; generated when empty
	Email    string
	Password string
	Role     model.Role
}

// IdentityProvider owns accounts and passwords. Profiles reference its user ids.
// tx lets callers enroll the account in the same database transaction as the profile.
type IdentityProvider interface {
	CreateUser(ctx context.Context, tx any, c Credentials) (userID string, err error)
	Authenticate(ctx context.Context, email, password string) (userID string, role model.Role, err error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// SetPassword replaces the password without checking the old one.
	SetPassword(ctx context.Context, userID, newPassword string) error
	DeleteUser(ctx context.Context, tx any, userID string) error
}
