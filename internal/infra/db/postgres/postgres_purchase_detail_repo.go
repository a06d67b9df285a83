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

var _ repository.PurchaseDetailRepository = (*purchaseDetailRepo)(nil)

type purchaseDetailRepo struct{ pool *pgxpool.Pool }

func NewPurchaseDetailRepo(pool *pgxpool.Pool) *purchaseDetailRepo {
	return &purchaseDetailRepo{pool: pool}
}

const purchaseDetailColumns = `id, transaction_id, package_id, duration, status, starts_at, ends_at, created_at, updated_at`

func (r *purchaseDetailRepo) Save(ctx context.Context, tx repository.Tx, d *model.PurchaseDetail) error {
	const q = `
INSERT INTO purchase_details (
  id, transaction_id, package_id, duration, status, starts_at, ends_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  status=$5, starts_at=$6, ends_at=$7, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q, d.ID, d.TransactionID, d.PackageID, d.Duration, d.Status, d.StartsAt, d.EndsAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseDetailRepo) FindByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.PurchaseDetail, error) {
	q := `SELECT ` + purchaseDetailColumns + ` FROM purchase_details WHERE transaction_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return nil, err
	}

	d := &model.PurchaseDetail{}
	if err := row.Scan(&d.ID, &d.TransactionID, &d.PackageID, &d.Duration, &d.Status, &d.StartsAt, &d.EndsAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return d, nil
}

// ClaimProcessing is the idempotency gate for activation. A row already in
// processing is claimable too: that state means a prior run crashed between
// claim and completion, and the activation lock keeps live runs from stepping
// on each other. Only success and failed stay closed.
func (r *purchaseDetailRepo) ClaimProcessing(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE purchase_details SET status='processing', updated_at=NOW() WHERE id=$1 AND status IN ('pending','processing');`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseDetailRepo) MarkSuccess(ctx context.Context, tx repository.Tx, id string, startsAt, endsAt time.Time) error {
	const q = `UPDATE purchase_details SET status='success', starts_at=$2, ends_at=$3, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, startsAt, endsAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseDetailRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE purchase_details SET status='failed', updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseDetailRepo) ReleaseProcessing(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE purchase_details SET status='pending', updated_at=NOW() WHERE id=$1 AND status='processing';`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
