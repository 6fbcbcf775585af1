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

var _ repository.TransactionRepository = (*PostgresTransactionRepo)(nil)

type PostgresTransactionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTransactionRepo(pool *pgxpool.Pool) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{pool: pool}
}

const transactionColumns = `t.id, t.user_id, t.plan_id, t.amount, t.status, t.proof_url, t.created_at, t.updated_at`

const transactionViewSelect = `
SELECT ` + transactionColumns + `,
       COALESCE(p.name, ''), COALESCE(p.email, ''), p.expired_at,
       COALESCE(pl.name, ''), COALESCE(pl.duration_days, 0)
  FROM transactions t
  LEFT JOIN profiles p ON p.id = t.user_id
  LEFT JOIN plans pl ON pl.id = t.plan_id`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t      model.Transaction
		status string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.PlanID, &t.Amount, &status, &t.ProofURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = model.TransactionStatus(status)
	return &t, nil
}

func (r *PostgresTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (id, user_id, plan_id, amount, status, proof_url, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, t.ID, t.UserID, t.PlanID, t.Amount, string(t.Status), t.ProofURL, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("save transaction %s: %w", t.ID, domain.ErrInvalidArgument)
		}
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *PostgresTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	t, err := scanTransaction(ex.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (r *PostgresTransactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, from, to model.TransactionStatus, at time.Time) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := ex.Exec(ctx, `UPDATE transactions SET status=$3, updated_at=$4 WHERE id=$1 AND status=$2`,
		id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := ex.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id=$1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresTransactionRepo) List(ctx context.Context, tx repository.Tx, f repository.TransactionFilter) ([]*model.TransactionView, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("t.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("t.created_at < $%d", len(args)))
	}
	q := transactionViewSelect
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Ascending {
		q += " ORDER BY t.created_at ASC, t.id ASC"
	} else {
		q += " ORDER BY t.created_at DESC, t.id DESC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.queryViews(ctx, tx, q, args...)
}

func (r *PostgresTransactionRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.TransactionStatus, from, to time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `
SELECT COUNT(*) FROM transactions
WHERE status = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)`, string(status), nullTime(from), nullTime(to)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *PostgresTransactionRepo) SumApproved(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var sum int64
	err = ex.QueryRow(ctx, `
SELECT COALESCE(SUM(amount), 0)::bigint FROM transactions
WHERE status = 'APPROVED'
  AND ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)`, nullTime(from), nullTime(to)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum approved: %w", err)
	}
	return sum, nil
}

func (r *PostgresTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.TransactionView, error) {
	if limit <= 0 {
		limit = 50
	}
	q := transactionViewSelect + `
 WHERE t.status = 'PENDING' AND t.created_at < $1
 ORDER BY t.created_at ASC
 LIMIT $2`
	return r.queryViews(ctx, tx, q, olderThan, limit)
}

func (r *PostgresTransactionRepo) queryViews(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.TransactionView, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	var out []*model.TransactionView
	for rows.Next() {
		var (
			v      model.TransactionView
			status string
			exp    *time.Time
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.PlanID, &v.Amount, &status, &v.ProofURL, &v.CreatedAt, &v.UpdatedAt,
			&v.MemberName, &v.MemberEmail, &exp, &v.PlanName, &v.PlanDuration); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		v.Status = model.TransactionStatus(status)
		v.MemberExpiredAt = fromNullTime(exp)
		out = append(out, &v)
	}
	return out, rows.Err()
}
