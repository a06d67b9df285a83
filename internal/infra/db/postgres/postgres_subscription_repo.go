package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, package_id, status, expired_at, created_at, updated_at`

// Save inserts a new subscription row. The table's unique (user_id, package_id)
// constraint is the last line of defense against double provisioning; a 23505
// surfaces as domain.ErrAlreadyExists so callers can switch to the extend path.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.WhatsAppSubscription) error {
	const q = `
INSERT INTO whatsapp_subscriptions (
  id, user_id, package_id, status, expired_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.PackageID, s.Status, s.ExpiredAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.WhatsAppSubscription) error {
	const q = `UPDATE whatsapp_subscriptions SET status=$2, expired_at=$3, updated_at=$4 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Status, s.ExpiredAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByUserAndPackage(ctx context.Context, tx repository.Tx, userID, packageID string) (*model.WhatsAppSubscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM whatsapp_subscriptions WHERE user_id=$1 AND package_id=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, packageID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.WhatsAppSubscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM whatsapp_subscriptions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*model.WhatsAppSubscription, error) {
	s := &model.WhatsAppSubscription{}
	err := row.Scan(&s.ID, &s.UserID, &s.PackageID, &s.Status, &s.ExpiredAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
