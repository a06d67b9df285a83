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

var _ repository.PaymentMethodRepository = (*paymentMethodRepo)(nil)

type paymentMethodRepo struct{ pool *pgxpool.Pool }

func NewPaymentMethodRepo(pool *pgxpool.Pool) *paymentMethodRepo {
	return &paymentMethodRepo{pool: pool}
}

const paymentMethodColumns = `code, name, image_url, is_gateway, provider, active, created_at, updated_at`

func (r *paymentMethodRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PaymentMethod, error) {
	const q = `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanPaymentMethod(row)
}

func (r *paymentMethodRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PaymentMethod, error) {
	const q = `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE active ORDER BY code ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentMethod
	for rows.Next() {
		m := &model.PaymentMethod{}
		if err := rows.Scan(&m.Code, &m.Name, &m.ImageURL, &m.IsGateway, &m.Provider, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

// Upsert refreshes one catalog row from gateway method discovery.
func (r *paymentMethodRepo) Upsert(ctx context.Context, tx repository.Tx, m *model.PaymentMethod) error {
	const q = `
INSERT INTO payment_methods (
  code, name, image_url, is_gateway, provider, active, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
ON CONFLICT (code) DO UPDATE SET
  name=$2, image_url=$3, is_gateway=$4, provider=$5, active=$6, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, m.Code, m.Name, m.ImageURL, m.IsGateway, m.Provider, m.Active)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanPaymentMethod(row pgx.Row) (*model.PaymentMethod, error) {
	m := &model.PaymentMethod{}
	err := row.Scan(&m.Code, &m.Name, &m.ImageURL, &m.IsGateway, &m.Provider, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}
