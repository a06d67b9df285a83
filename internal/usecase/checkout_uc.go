package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/gateway"
	"whatsapp-subscription-billing/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// checkoutWindow is how long a fresh transaction stays payable.
const checkoutWindow = 24 * time.Hour

type CheckoutUseCase interface {
	// CreateTransaction opens a purchase intent for one package/duration.
	CreateTransaction(ctx context.Context, userID, packageID string, duration model.PackageDuration, currency string, discount int64) (*model.Transaction, error)
	// CreatePayment attaches a payment attempt to a live transaction via the
	// adapter owning the method code.
	CreatePayment(ctx context.Context, transactionID, methodCode string, customer adapter.CustomerInfo) (*model.Payment, error)
}

type checkoutUC struct {
	transactions repository.TransactionRepository
	payments     repository.PaymentRepository
	details      repository.PurchaseDetailRepository
	packages     repository.PackageRepository
	registry     *gateway.Registry
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	transactions repository.TransactionRepository,
	payments repository.PaymentRepository,
	details repository.PurchaseDetailRepository,
	packages repository.PackageRepository,
	registry *gateway.Registry,
	logger *zerolog.Logger,
) *checkoutUC {
	ucLog := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		transactions: transactions,
		payments:     payments,
		details:      details,
		packages:     packages,
		registry:     registry,
		log:          &ucLog,
	}
}

func (u *checkoutUC) CreateTransaction(ctx context.Context, userID, packageID string, duration model.PackageDuration, currency string, discount int64) (*model.Transaction, error) {
	if userID == "" || packageID == "" {
		return nil, domain.ErrInvalidArgument
	}
	pkg, err := u.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}

	price := pkg.MonthlyPrice
	if duration == model.PackageDurationYear {
		price = pkg.YearlyPrice
	}
	if discount < 0 || discount > price {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now()
	expires := now.Add(checkoutWindow)
	t := &model.Transaction{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           model.TransactionTypeWhatsAppSubscription,
		OriginalAmount: price,
		DiscountAmount: discount,
		FinalAmount:    price - discount,
		Currency:       currency,
		Status:         model.TransactionStatusCreated,
		ExpiresAt:      &expires,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}

	detail := &model.PurchaseDetail{
		ID:            uuid.NewString(),
		TransactionID: t.ID,
		PackageID:     packageID,
		Duration:      duration,
		Status:        model.PurchaseDetailStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.details.Save(ctx, repository.NoTX, detail); err != nil {
		return nil, err
	}
	u.log.Info().Str("transaction_id", t.ID).Str("package_id", packageID).Int64("amount", t.FinalAmount).Msg("transaction created")
	return t, nil
}

func (u *checkoutUC) CreatePayment(ctx context.Context, transactionID, methodCode string, customer adapter.CustomerInfo) (*model.Payment, error) {
	t, err := u.transactions.FindByID(ctx, repository.NoTX, transactionID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !t.AcceptsPayment(now) {
		// Lazy expiry: demote the overdue transaction now instead of waiting
		// for the sweeper.
		if t.Status.CountsDown() && t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
			_, _ = u.transactions.UpdateStatusIf(ctx, repository.NoTX, t.ID, model.TransactionStatusExpired,
				model.TransactionStatusCreated, model.TransactionStatusPending)
		}
		return nil, domain.ErrTransactionExpired
	}

	// At most one pending payment per transaction.
	if existing, err := u.payments.FindPendingByTransaction(ctx, repository.NoTX, t.ID); err == nil && existing != nil {
		return nil, domain.ErrPaymentPendingExist
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	g := u.registry.Resolve(ctx, methodCode)
	res, err := g.CreatePayment(ctx, adapter.CreatePaymentRequest{
		TransactionID: t.ID,
		Amount:        t.FinalAmount,
		Currency:      t.Currency,
		MethodCode:    methodCode,
		Customer:      customer,
	})
	if err != nil {
		return nil, err
	}

	expires := res.ExpiresAt
	p := &model.Payment{
		ID:            uuid.NewString(),
		TransactionID: t.ID,
		Method:        methodCode,
		Amount:        t.FinalAmount,
		ServiceFee:    t.ServiceFeeAmount,
		Status:        res.Status,
		ExternalID:    res.ExternalID,
		PaymentURL:    res.PaymentURL,
		ExpiresAt:     &expires,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}

	if _, err := u.transactions.UpdateStatusIf(ctx, repository.NoTX, t.ID, model.TransactionStatusPending, model.TransactionStatusCreated); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(p.Status))
	u.log.Info().
		Str("transaction_id", t.ID).
		Str("payment_id", p.ID).
		Str("method", methodCode).
		Str("provider", g.Name()).
		Msg("payment created")
	return p, nil
}
