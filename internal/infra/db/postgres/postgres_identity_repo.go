package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = (*PostgresIdentityRepo)(nil)

// PostgresIdentityRepo stores credentials in the users table with bcrypt hashes.
type PostgresIdentityRepo struct {
	pool *pgxpool.Pool
	cost int
}

func NewPostgresIdentityRepo(pool *pgxpool.Pool) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{pool: pool, cost: bcrypt.DefaultCost}
}

func (r *PostgresIdentityRepo) CreateUser(ctx context.Context, tx any, c adapter.Credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" || len(c.Password) < adapter.MinPasswordLen {
		return "", domain.ErrInvalidArgument
	}
	id := c.UserID
	if id == "" {
		id = uuid.NewString()
	}
	role := c.Role
	if role == "" {
		role = model.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), r.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = ex.Exec(ctx, `
INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)`, id, email, string(hash), string(role), now)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return "", domain.ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (r *PostgresIdentityRepo) Authenticate(ctx context.Context, email, password string) (string, model.Role, error) {
	var id, hash, role string
	err := r.pool.QueryRow(ctx, `SELECT id, password_hash, role FROM users WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&id, &hash, &role)
	if err != nil {
		if isNoRows(err) {
			return "", "", domain.ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", "", domain.ErrInvalidCredentials
	}
	return id, model.Role(role), nil
}

func (r *PostgresIdentityRepo) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < adapter.MinPasswordLen {
		return domain.ErrInvalidArgument
	}
	var hash string
	if err := r.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&hash); err != nil {
		if isNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("change password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidCredentials
		}
		return err
	}
	return r.SetPassword(ctx, userID, newPassword)
}

func (r *PostgresIdentityRepo) SetPassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < adapter.MinPasswordLen {
		return domain.ErrInvalidArgument
	}
	next, err := bcrypt.GenerateFromPassword([]byte(newPassword), r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ct, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, string(next))
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteUser removes the account; the profile and its transactions cascade.
func (r *PostgresIdentityRepo) DeleteUser(ctx context.Context, tx any, userID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
