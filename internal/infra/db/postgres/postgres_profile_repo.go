package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*PostgresProfileRepo)(nil)

type PostgresProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool}
}

const profileColumns = `id, name, email, phone_number, is_active, expired_at, member_type, role, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		p    model.Profile
		exp  *time.Time
		role string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PhoneNumber, &p.IsActive, &exp, &p.MemberType, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ExpiredAt = fromNullTime(exp)
	p.Role = model.Role(role)
	return &p, nil
}

func (r *PostgresProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	const q = `
INSERT INTO profiles (` + profileColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, email=EXCLUDED.email, phone_number=EXCLUDED.phone_number,
  is_active=EXCLUDED.is_active, expired_at=EXCLUDED.expired_at,
  member_type=EXCLUDED.member_type, role=EXCLUDED.role, updated_at=EXCLUDED.updated_at;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.Name, p.Email, p.PhoneNumber, p.IsActive, nullTime(p.ExpiredAt),
		p.MemberType, string(p.Role), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("save profile %s: %w", p.ID, domain.ErrInvalidArgument)
		}
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	return r.findOne(ctx, tx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id)
}

func (r *PostgresProfileRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Profile, error) {
	return r.findOne(ctx, tx, `SELECT `+profileColumns+` FROM profiles WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresProfileRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.Profile, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	p, err := scanProfile(ex.QueryRow(ctx, q, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

// profileWhere renders the filter as a WHERE clause and its arguments.
func profileWhere(f repository.ProfileFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.Role != "" {
		args = append(args, string(f.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR email LIKE $%d)", len(args), len(args)))
	}
	if !f.CreatedBefore.IsZero() {
		args = append(args, f.CreatedBefore)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresProfileRepo) List(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, error) {
	where, args := profileWhere(f)
	q := `SELECT ` + profileColumns + ` FROM profiles` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.query(ctx, tx, q, args...)
}

func (r *PostgresProfileRepo) Count(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) (int, error) {
	where, args := profileWhere(f)
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (r *PostgresProfileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresProfileRepo) ListLapsed(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles
WHERE is_active = TRUE AND expired_at IS NOT NULL AND expired_at < $1
ORDER BY expired_at`
	return r.query(ctx, tx, q, now)
}

func (r *PostgresProfileRepo) DeactivateByIDs(ctx context.Context, tx repository.Tx, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	// is_active guard keeps concurrent renewals from being undone
	ct, err := ex.Exec(ctx, `
UPDATE profiles SET is_active = FALSE, updated_at = $2
WHERE id = ANY($1) AND is_active = TRUE AND expired_at < $2`, ids, at)
	if err != nil {
		return 0, fmt.Errorf("deactivate profiles: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *PostgresProfileRepo) ListExpiring(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles
WHERE is_active = TRUE AND expired_at BETWEEN $1 AND $2
ORDER BY expired_at`
	return r.query(ctx, tx, q, from, to)
}

func (r *PostgresProfileRepo) CountCreatedBetween(ctx context.Context, tx repository.Tx, from, to time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `
SELECT COUNT(*) FROM profiles
WHERE role = 'USER' AND created_at >= $1 AND created_at < $2`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count profiles created: %w", err)
	}
	return n, nil
}

func (r *PostgresProfileRepo) query(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.Profile, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()
	var out []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
