package repository

import (
	"context"
	"time"

	"whatsapp-subscription-billing/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByExternalID(ctx context.Context, tx Tx, externalID string) (*model.Payment, error)
	FindPendingByTransaction(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)
	FindLatestByTransaction(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)

	// UpdateStatusIfPending atomically updates status only when the current
	// status is still 'pending'; the first caller wins, all others observe false.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, to model.PaymentStatus, paymentDate *time.Time) (bool, error)

	// SetAudit records who approved a manual payment and why.
	SetAudit(ctx context.Context, tx Tx, id, approvedBy, note string) error

	// ListPendingOlderThan returns stale pending gateway payments for the reconciler.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// ExpireOverdue demotes pending payments whose window has passed.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int64, error)
	// ClearStaleExpiry nulls expires_at on rows no longer counting down.
	ClearStaleExpiry(ctx context.Context, tx Tx) (int64, error)
}
