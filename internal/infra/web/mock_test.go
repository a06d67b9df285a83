//go:build !integration

package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
	"whatsapp-subscription-billing/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Stub CheckoutUseCase ----

type stubCheckoutUC struct {
	CreateTransactionFunc func(ctx context.Context, userID, packageID string, duration model.PackageDuration, currency string, discount int64) (*model.Transaction, error)
	CreatePaymentFunc     func(ctx context.Context, transactionID, methodCode string, customer adapter.CustomerInfo) (*model.Payment, error)
}

var _ usecase.CheckoutUseCase = (*stubCheckoutUC)(nil)

func (s *stubCheckoutUC) CreateTransaction(ctx context.Context, userID, packageID string, duration model.PackageDuration, currency string, discount int64) (*model.Transaction, error) {
	if s.CreateTransactionFunc != nil {
		return s.CreateTransactionFunc(ctx, userID, packageID, duration, currency, discount)
	}
	return nil, domain.ErrOperationFailed
}

func (s *stubCheckoutUC) CreatePayment(ctx context.Context, transactionID, methodCode string, customer adapter.CustomerInfo) (*model.Payment, error) {
	if s.CreatePaymentFunc != nil {
		return s.CreatePaymentFunc(ctx, transactionID, methodCode, customer)
	}
	return nil, domain.ErrOperationFailed
}

// ---- Stub SettlementUseCase ----

type stubSettlementUC struct {
	HandleCallbackFunc    func(ctx context.Context, provider string, payload adapter.CallbackPayload) error
	CheckStatusFunc       func(ctx context.Context, paymentID string) (*model.Payment, error)
	TransactionStatusFunc func(ctx context.Context, transactionID string) (*model.Transaction, *model.Payment, error)
	ApproveManualFunc     func(ctx context.Context, paymentID, adminID, note string) error
	CancelPaymentFunc     func(ctx context.Context, paymentID string) error
}

var _ usecase.SettlementUseCase = (*stubSettlementUC)(nil)

func (s *stubSettlementUC) HandleCallback(ctx context.Context, provider string, payload adapter.CallbackPayload) error {
	if s.HandleCallbackFunc != nil {
		return s.HandleCallbackFunc(ctx, provider, payload)
	}
	return nil
}

func (s *stubSettlementUC) CheckStatus(ctx context.Context, paymentID string) (*model.Payment, error) {
	if s.CheckStatusFunc != nil {
		return s.CheckStatusFunc(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}

func (s *stubSettlementUC) TransactionStatus(ctx context.Context, transactionID string) (*model.Transaction, *model.Payment, error) {
	if s.TransactionStatusFunc != nil {
		return s.TransactionStatusFunc(ctx, transactionID)
	}
	return nil, nil, domain.ErrNotFound
}

func (s *stubSettlementUC) ApproveManual(ctx context.Context, paymentID, adminID, note string) error {
	if s.ApproveManualFunc != nil {
		return s.ApproveManualFunc(ctx, paymentID, adminID, note)
	}
	return nil
}

func (s *stubSettlementUC) CancelPayment(ctx context.Context, paymentID string) error {
	if s.CancelPaymentFunc != nil {
		return s.CancelPaymentFunc(ctx, paymentID)
	}
	return nil
}

func (s *stubSettlementUC) Sweep(ctx context.Context) (int64, error) { return 0, nil }

// ---- Stub CatalogUseCase ----

type stubCatalogUC struct {
	ListMethodsFunc    func(ctx context.Context) ([]*model.PaymentMethod, error)
	ListPackagesFunc   func(ctx context.Context) ([]*model.WhatsAppPackage, error)
	RefreshMethodsFunc func(ctx context.Context, provider adapter.PaymentGateway, amount int64) (int, error)
}

var _ usecase.CatalogUseCase = (*stubCatalogUC)(nil)

func (s *stubCatalogUC) ListMethods(ctx context.Context) ([]*model.PaymentMethod, error) {
	if s.ListMethodsFunc != nil {
		return s.ListMethodsFunc(ctx)
	}
	return nil, nil
}

func (s *stubCatalogUC) ListPackages(ctx context.Context) ([]*model.WhatsAppPackage, error) {
	if s.ListPackagesFunc != nil {
		return s.ListPackagesFunc(ctx)
	}
	return nil, nil
}

func (s *stubCatalogUC) RefreshMethods(ctx context.Context, provider adapter.PaymentGateway, amount int64) (int, error) {
	if s.RefreshMethodsFunc != nil {
		return s.RefreshMethodsFunc(ctx, provider, amount)
	}
	return 0, nil
}

// ---- Stub method repo for the registry ----

type stubMethodRepo struct{}

var _ repository.PaymentMethodRepository = (*stubMethodRepo)(nil)

func (stubMethodRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PaymentMethod, error) {
	return nil, domain.ErrNotFound
}
func (stubMethodRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PaymentMethod, error) {
	return nil, nil
}
func (stubMethodRepo) Upsert(ctx context.Context, tx repository.Tx, m *model.PaymentMethod) error {
	return nil
}

// ---- Stub gateway for the registry ----

type stubGateway struct{ name string }

var _ adapter.PaymentGateway = (*stubGateway)(nil)

func (s *stubGateway) Name() string                 { return s.name }
func (s *stubGateway) IsActive() bool               { return true }
func (s *stubGateway) ValidateConfiguration() error { return nil }
func (s *stubGateway) CreatePayment(ctx context.Context, req adapter.CreatePaymentRequest) (*adapter.CreatePaymentResult, error) {
	return nil, domain.ErrOperationFailed
}
func (s *stubGateway) CheckPaymentStatus(ctx context.Context, externalID string) (*adapter.StatusResult, error) {
	return nil, domain.ErrOperationFailed
}
func (s *stubGateway) ProcessCallback(ctx context.Context, payload adapter.CallbackPayload) (*adapter.CallbackResult, error) {
	return nil, domain.ErrSignatureMismatch
}
func (s *stubGateway) AvailablePaymentMethods(ctx context.Context, amount int64) ([]adapter.MethodInfo, error) {
	return nil, nil
}
