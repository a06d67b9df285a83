package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/gateway"
	"whatsapp-subscription-billing/internal/infra/metrics"
)

var _ SettlementUseCase = (*settlementUC)(nil)

// Activator is fulfilled by the activation coordinator. Settlement only needs
// to kick it after a payment lands.
type Activator interface {
	Activate(ctx context.Context, transactionID string) error
}

type SettlementUseCase interface {
	// HandleCallback verifies and applies a provider webhook.
	HandleCallback(ctx context.Context, provider string, payload adapter.CallbackPayload) error
	// CheckStatus re-queries the provider for a pending gateway payment and
	// applies any terminal answer. Returns the (possibly updated) payment.
	CheckStatus(ctx context.Context, paymentID string) (*model.Payment, error)
	// TransactionStatus reports a transaction with its latest payment,
	// refreshing a stale pending gateway payment on the way.
	TransactionStatus(ctx context.Context, transactionID string) (*model.Transaction, *model.Payment, error)
	// ApproveManual marks a manual payment paid with an audit trail.
	ApproveManual(ctx context.Context, paymentID, adminID, note string) error
	// CancelPayment voids a pending payment attempt.
	CancelPayment(ctx context.Context, paymentID string) error
	// Sweep demotes everything whose expiry window has passed.
	Sweep(ctx context.Context) (int64, error)
}

type settlementUC struct {
	tm           repository.TransactionManager
	payments     repository.PaymentRepository
	transactions repository.TransactionRepository
	registry     *gateway.Registry
	activator    Activator
	log          *zerolog.Logger
}

func NewSettlementUseCase(
	tm repository.TransactionManager,
	payments repository.PaymentRepository,
	transactions repository.TransactionRepository,
	registry *gateway.Registry,
	activator Activator,
	logger *zerolog.Logger,
) *settlementUC {
	ucLog := logger.With().Str("component", "SettlementUC").Logger()
	return &settlementUC{
		tm:           tm,
		payments:     payments,
		transactions: transactions,
		registry:     registry,
		activator:    activator,
		log:          &ucLog,
	}
}

func (u *settlementUC) HandleCallback(ctx context.Context, provider string, payload adapter.CallbackPayload) error {
	g, ok := u.registry.Adapter(provider)
	if !ok {
		return fmt.Errorf("%w: no adapter for provider %q", domain.ErrInvalidArgument, provider)
	}
	res, err := g.ProcessCallback(ctx, payload)
	if err != nil {
		metrics.IncCallback(provider, "rejected")
		return err
	}
	metrics.IncCallback(provider, "verified")

	p, err := u.payments.FindByExternalID(ctx, repository.NoTX, res.ExternalID)
	if err != nil {
		return err
	}
	if res.Amount != p.Amount {
		u.log.Warn().
			Str("payment_id", p.ID).
			Int64("expected", p.Amount).
			Int64("got", res.Amount).
			Msg("callback amount mismatch")
		return fmt.Errorf("%w: callback amount mismatch", domain.ErrInvalidArgument)
	}

	paidAt := res.PaymentDate
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return u.applyPaymentStatus(ctx, p, res.Status, &paidAt)
}

func (u *settlementUC) CheckStatus(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending || p.ExternalID == "" {
		return p, nil
	}

	g := u.registry.Resolve(ctx, p.Method)
	if u.registry.IsManual(g) {
		return p, nil
	}
	res, err := g.CheckPaymentStatus(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	if res.Status == model.PaymentStatusPending {
		return p, nil
	}

	now := time.Now()
	if err := u.applyPaymentStatus(ctx, p, res.Status, &now); err != nil {
		return nil, err
	}
	return u.payments.FindByID(ctx, repository.NoTX, paymentID)
}

func (u *settlementUC) TransactionStatus(ctx context.Context, transactionID string) (*model.Transaction, *model.Payment, error) {
	t, err := u.transactions.FindByID(ctx, repository.NoTX, transactionID)
	if err != nil {
		return nil, nil, err
	}
	p, err := u.payments.FindLatestByTransaction(ctx, repository.NoTX, transactionID)
	if errors.Is(err, domain.ErrNotFound) {
		return t, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if p.Status == model.PaymentStatusPending && p.ExpiresAt != nil && p.ExpiresAt.Before(time.Now()) {
		// Lazy expiry on read; the sweeper would get here eventually.
		if err := u.applyPaymentStatus(ctx, p, model.PaymentStatusExpired, nil); err == nil {
			if p, err = u.payments.FindByID(ctx, repository.NoTX, p.ID); err != nil {
				return nil, nil, err
			}
			if t, err = u.transactions.FindByID(ctx, repository.NoTX, transactionID); err != nil {
				return nil, nil, err
			}
		}
	}
	if p.Status == model.PaymentStatusPending && p.ExternalID != "" {
		if refreshed, err := u.CheckStatus(ctx, p.ID); err == nil {
			p = refreshed
			t, err = u.transactions.FindByID(ctx, repository.NoTX, transactionID)
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return t, p, nil
}

func (u *settlementUC) ApproveManual(ctx context.Context, paymentID, adminID, note string) error {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return err
	}
	if p.ExternalID != "" {
		return fmt.Errorf("%w: gateway payments settle via callback, not approval", domain.ErrInvalidArgument)
	}
	now := time.Now()
	if err := u.applyPaymentStatus(ctx, p, model.PaymentStatusPaid, &now); err != nil {
		return err
	}
	if err := u.payments.SetAudit(ctx, repository.NoTX, p.ID, adminID, note); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("failed to record approval audit")
	}
	u.log.Info().Str("payment_id", p.ID).Str("approved_by", adminID).Msg("manual payment approved")
	return nil
}

func (u *settlementUC) CancelPayment(ctx context.Context, paymentID string) error {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return err
	}
	return u.applyPaymentStatus(ctx, p, model.PaymentStatusCancelled, nil)
}

// applyPaymentStatus is the single funnel through which every settlement
// signal (callback, status poll, manual approval, cancellation) lands. The
// conditional update linearizes racing signals: exactly one flips the payment
// out of pending, everyone else observes a no-op.
func (u *settlementUC) applyPaymentStatus(ctx context.Context, p *model.Payment, to model.PaymentStatus, paymentDate *time.Time) error {
	if !p.Status.CanTransition(to) {
		return &domain.TransitionError{Entity: "payment", From: string(p.Status), To: string(to)}
	}

	var claimed bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		claimed, err = u.payments.UpdateStatusIfPending(ctx, tx, p.ID, to, paymentDate)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		switch to {
		case model.PaymentStatusPaid:
			// Paid drags the transaction into fulfillment and stops its clock.
			_, err = u.transactions.UpdateStatusIf(ctx, tx, p.TransactionID, model.TransactionStatusInProgress,
				model.TransactionStatusCreated, model.TransactionStatusPending)
		case model.PaymentStatusFailed, model.PaymentStatusExpired:
			_, err = u.transactions.UpdateStatusIf(ctx, tx, p.TransactionID, model.TransactionStatusExpired,
				model.TransactionStatusCreated, model.TransactionStatusPending)
		case model.PaymentStatusCancelled:
			// A cancelled attempt reopens the transaction for a fresh payment.
			// This pending -> created revert is the one sanctioned exception to
			// the transaction machine's forward-only table and exists only on
			// this conditional path.
			_, err = u.transactions.UpdateStatusIf(ctx, tx, p.TransactionID, model.TransactionStatusCreated,
				model.TransactionStatusPending)
		}
		return err
	})
	if err != nil {
		return err
	}
	if !claimed {
		u.log.Debug().Str("payment_id", p.ID).Str("to", string(to)).Msg("payment already settled, signal ignored")
		return nil
	}

	metrics.IncSettlement(string(to))
	u.log.Info().Str("payment_id", p.ID).Str("transaction_id", p.TransactionID).Str("status", string(to)).Msg("payment settled")

	if to == model.PaymentStatusPaid {
		if t, err := u.transactions.FindByID(ctx, repository.NoTX, p.TransactionID); err == nil {
			metrics.AddPaymentRevenue(t.Currency, p.Amount)
		}
	}

	if to == model.PaymentStatusPaid && u.activator != nil {
		if err := u.activator.Activate(ctx, p.TransactionID); err != nil {
			// Settlement stands; the transaction stays in_progress for a retry.
			u.log.Error().Err(err).Str("transaction_id", p.TransactionID).Msg("activation after settlement failed")
		}
	}
	return nil
}

// Sweep demotes overdue pending rows and scrubs stale expiry stamps. The
// predicates live in SQL so a row settling mid-sweep cannot be demoted.
func (u *settlementUC) Sweep(ctx context.Context) (int64, error) {
	now := time.Now()
	var total int64

	n, err := u.payments.ExpireOverdue(ctx, repository.NoTX, now)
	if err != nil {
		return total, err
	}
	total += n

	n, err = u.transactions.ExpireOverdue(ctx, repository.NoTX, now)
	if err != nil {
		return total, err
	}
	total += n

	if _, err := u.payments.ClearStaleExpiry(ctx, repository.NoTX); err != nil {
		return total, err
	}
	if _, err := u.transactions.ClearStaleExpiry(ctx, repository.NoTX); err != nil {
		return total, err
	}

	if total > 0 {
		metrics.AddSweepDemoted(total)
		u.log.Info().Int64("demoted", total).Msg("expiry sweep demoted overdue rows")
	}
	return total, nil
}
