package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")

	// Membership errors
	ErrMemberNotFound    = errors.New("member not found")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanInactive      = errors.New("plan is not active")
	ErrPlanUnresolvable  = errors.New("no plan can be resolved for the payment")
	ErrInvalidTransition = errors.New("transaction status cannot change")
	ErrProofRequired     = errors.New("payment proof is required")

	// Identity errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRateLimited        = errors.New("too many attempts")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)
