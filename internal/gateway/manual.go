package gateway

import (
	"context"
	"time"

	"whatsapp-subscription-billing/internal/domain"
	"whatsapp-subscription-billing/internal/domain/model"
	"whatsapp-subscription-billing/internal/domain/ports/adapter"
	"whatsapp-subscription-billing/internal/domain/ports/repository"
)

var _ adapter.PaymentGateway = (*ManualGateway)(nil)

// ManualGateway is the non-provider variant: bank transfers an operator
// approves by hand. It never calls out; creation deterministically yields a
// pending payment with a flat 24-hour window and no external id.
type ManualGateway struct {
	payments repository.PaymentRepository
}

func NewManualGateway(payments repository.PaymentRepository) *ManualGateway {
	return &ManualGateway{payments: payments}
}

func (g *ManualGateway) Name() string   { return "manual" }
func (g *ManualGateway) IsActive() bool { return true }

func (g *ManualGateway) ValidateConfiguration() error { return nil }

func (g *ManualGateway) CreatePayment(ctx context.Context, in adapter.CreatePaymentRequest) (*adapter.CreatePaymentResult, error) {
	if err := ValidateManualAmount(in.MethodCode, in.Amount, in.Currency); err != nil {
		return nil, err
	}
	return &adapter.CreatePaymentResult{
		Status:    model.PaymentStatusPending,
		ExpiresAt: ComputeExpiresAt(in.MethodCode, true, time.Now()),
	}, nil
}

// CheckPaymentStatus reads local state: manual payments have no provider, so
// the id given here is our own payment id.
func (g *ManualGateway) CheckPaymentStatus(ctx context.Context, externalID string) (*adapter.StatusResult, error) {
	p, err := g.payments.FindByID(ctx, repository.NoTX, externalID)
	if err != nil {
		return nil, err
	}
	return &adapter.StatusResult{Status: p.Status, Message: "manual payment"}, nil
}

// ProcessCallback always fails: no provider means no webhooks.
func (g *ManualGateway) ProcessCallback(ctx context.Context, payload adapter.CallbackPayload) (*adapter.CallbackResult, error) {
	return nil, domain.ErrInvalidArgument
}

func (g *ManualGateway) AvailablePaymentMethods(ctx context.Context, amount int64) ([]adapter.MethodInfo, error) {
	return []adapter.MethodInfo{
		{Code: "bank_transfer", Name: "Manual Bank Transfer"},
	}, nil
}
