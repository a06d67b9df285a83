package repository

import (
	"context"
	"time"

	"whatsapp-subscription-billing/internal/domain/model"
)

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)

	// UpdateStatusIf flips status only while the current status is one of
	// `from`; reports whether a row was claimed. The expiry window is cleared
	// whenever the new status no longer counts down.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, to model.TransactionStatus, from ...model.TransactionStatus) (bool, error)

	// ExpireOverdue demotes created/pending transactions whose window has
	// passed; returns the number of rows demoted.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int64, error)
	// ClearStaleExpiry nulls expires_at on rows whose status no longer counts
	// down; returns rows touched.
	ClearStaleExpiry(ctx context.Context, tx Tx) (int64, error)
}

type PurchaseDetailRepository interface {
	Save(ctx context.Context, tx Tx, d *model.PurchaseDetail) error
	FindByTransaction(ctx context.Context, tx Tx, transactionID string) (*model.PurchaseDetail, error)

	// ClaimProcessing conditionally flips pending -> processing. A false return
	// with nil error means another activator already claimed the row.
	ClaimProcessing(ctx context.Context, tx Tx, id string) (bool, error)
	MarkSuccess(ctx context.Context, tx Tx, id string, startsAt, endsAt time.Time) error
	MarkFailed(ctx context.Context, tx Tx, id string) error
	// ReleaseProcessing reverts processing -> pending so a failed activation
	// can be retried by an operator.
	ReleaseProcessing(ctx context.Context, tx Tx, id string) error
}
