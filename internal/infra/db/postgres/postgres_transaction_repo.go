package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, user_id, type, original_amount, discount_amount, service_fee_amount, final_amount, currency, status, expires_at, created_at, updated_at`

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (
  id, user_id, type, original_amount, discount_amount, service_fee_amount, final_amount, currency, status, expires_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  status=$9, expires_at=$10, updated_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.UserID, t.Type, t.OriginalAmount, t.DiscountAmount, t.ServiceFeeAmount, t.FinalAmount, t.Currency, t.Status, t.ExpiresAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.OriginalAmount, &t.DiscountAmount, &t.ServiceFeeAmount, &t.FinalAmount, &t.Currency, &t.Status, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

// UpdateStatusIf is the conditional flip the settlement path relies on: the
// WHERE clause carries the allowed source statuses so racing writers
// linearize inside Postgres. Moving out of the countdown states also nulls
// expires_at in the same statement.
func (r *transactionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, to model.TransactionStatus, from ...model.TransactionStatus) (bool, error) {
	if len(from) == 0 {
		return false, domain.ErrInvalidArgument
	}
	fromStrs := make([]string, len(from))
	for i, f := range from {
		fromStrs[i] = string(f)
	}
	const q = `
UPDATE transactions
SET status=$2,
    expires_at=CASE WHEN $2 IN ('created','pending') THEN expires_at ELSE NULL END,
    updated_at=NOW()
WHERE id=$1 AND status = ANY($3);`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(to), fromStrs)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE transactions
SET status='expired', expires_at=NULL, updated_at=NOW()
WHERE status IN ('created','pending') AND expires_at IS NOT NULL AND expires_at < $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *transactionRepo) ClearStaleExpiry(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `
UPDATE transactions
SET expires_at=NULL, updated_at=NOW()
WHERE status NOT IN ('created','pending') AND expires_at IS NOT NULL;`

	cmd, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}
