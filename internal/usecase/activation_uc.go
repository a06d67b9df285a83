package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/infra/metrics"
)

var _ Activator = (*activationUC)(nil)

// Locker is the distributed mutex the coordinator serializes on. Fulfilled by
// the redis lock; TryLock returns domain.ErrLockHeld when another process owns
// the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// activationUC provisions the purchased subscription after money has landed.
// Defense in depth against double provisioning: a per-transaction lock, a
// conditional processing claim on the purchase detail (a stranded processing
// row from a crashed run is reclaimable, only success/failed refuse), and the
// unique (user, package) constraint on subscriptions.
type activationUC struct {
	tm            repository.TransactionManager
	transactions  repository.TransactionRepository
	payments      repository.PaymentRepository
	details       repository.PurchaseDetailRepository
	subscriptions repository.SubscriptionRepository
	locker        Locker
	lockTTL       time.Duration
	log           *zerolog.Logger
}

func NewActivationUseCase(
	tm repository.TransactionManager,
	transactions repository.TransactionRepository,
	payments repository.PaymentRepository,
	details repository.PurchaseDetailRepository,
	subscriptions repository.SubscriptionRepository,
	locker Locker,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *activationUC {
	ucLog := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{
		tm:            tm,
		transactions:  transactions,
		payments:      payments,
		details:       details,
		subscriptions: subscriptions,
		locker:        locker,
		lockTTL:       lockTTL,
		log:           &ucLog,
	}
}

func (u *activationUC) Activate(ctx context.Context, transactionID string) error {
	key := "activation:" + transactionID
	token, err := u.locker.TryLock(ctx, key, u.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			// Another worker is already activating this transaction.
			u.log.Debug().Str("transaction_id", transactionID).Msg("activation lock held elsewhere")
			return nil
		}
		return err
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			u.log.Warn().Err(err).Str("transaction_id", transactionID).Msg("failed to release activation lock")
		}
	}()

	// Preconditions, checked before any side effect.
	t, err := u.transactions.FindByID(ctx, repository.NoTX, transactionID)
	if err != nil {
		return err
	}
	if t.Status != model.TransactionStatusInProgress {
		return &domain.TransitionError{Entity: "transaction", From: string(t.Status), To: string(model.TransactionStatusInProgress)}
	}
	p, err := u.payments.FindLatestByTransaction(ctx, repository.NoTX, transactionID)
	if err != nil {
		return err
	}
	if p.Status != model.PaymentStatusPaid {
		return fmt.Errorf("%w: payment %s is %s, not paid", domain.ErrOperationFailed, p.ID, p.Status)
	}
	detail, err := u.details.FindByTransaction(ctx, repository.NoTX, transactionID)
	if err != nil {
		return err
	}
	if detail.Status == model.PurchaseDetailStatusSuccess {
		// Replayed callback or manual re-trigger; already provisioned.
		metrics.IncActivation("noop")
		return nil
	}

	claimed, err := u.details.ClaimProcessing(ctx, repository.NoTX, detail.ID)
	if err != nil {
		return err
	}
	if !claimed {
		metrics.IncActivation("noop")
		return nil
	}

	if err := u.provision(ctx, t, detail); err != nil {
		// Leave the transaction in_progress so an operator can retry; only the
		// claim is rolled back.
		if relErr := u.details.ReleaseProcessing(ctx, repository.NoTX, detail.ID); relErr != nil {
			u.log.Error().Err(relErr).Str("detail_id", detail.ID).Msg("failed to release processing claim")
		}
		metrics.IncActivation("failed")
		u.log.Error().Err(err).Str("transaction_id", transactionID).Msg("activation failed")
		return err
	}

	metrics.IncActivation("success")
	u.log.Info().Str("transaction_id", transactionID).Str("user_id", t.UserID).Msg("subscription activated")
	return nil
}

// provision extends the (user, package) subscription or creates it, marks the
// detail done and advances the transaction, all in one database transaction.
func (u *activationUC) provision(ctx context.Context, t *model.Transaction, detail *model.PurchaseDetail) error {
	now := time.Now()
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.upsertSubscription(ctx, tx, t.UserID, detail, now)
		if err != nil {
			return err
		}
		if err := u.details.MarkSuccess(ctx, tx, detail.ID, now, sub.ExpiredAt); err != nil {
			return err
		}
		if _, err := u.transactions.UpdateStatusIf(ctx, tx, t.ID, model.TransactionStatusSuccess, model.TransactionStatusInProgress); err != nil {
			return err
		}
		return nil
	})
}

func (u *activationUC) upsertSubscription(ctx context.Context, tx repository.Tx, userID string, detail *model.PurchaseDetail, now time.Time) (*model.WhatsAppSubscription, error) {
	sub, err := u.subscriptions.FindByUserAndPackage(ctx, tx, userID, detail.PackageID)
	switch {
	case err == nil:
		sub.Extend(detail.Duration, now)
		if err := u.subscriptions.Update(ctx, tx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	case errors.Is(err, domain.ErrNotFound):
		fresh, err := model.NewWhatsAppSubscription(uuid.NewString(), userID, detail.PackageID, detail.Duration, now)
		if err != nil {
			return nil, err
		}
		err = u.subscriptions.Save(ctx, tx, fresh)
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the insert race; the row exists now, so extend it instead.
			sub, err := u.subscriptions.FindByUserAndPackage(ctx, tx, userID, detail.PackageID)
			if err != nil {
				return nil, err
			}
			sub.Extend(detail.Duration, now)
			if err := u.subscriptions.Update(ctx, tx, sub); err != nil {
				return nil, err
			}
			return sub, nil
		}
		if err != nil {
			return nil, err
		}
		return fresh, nil
	default:
		return nil, err
	}
}
