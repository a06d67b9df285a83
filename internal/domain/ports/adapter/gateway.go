package adapter

import (
	"context"
	"time"

	"whatsapp-subscription-billing/internal/domain/model"
)

// CustomerInfo is forwarded to the provider on payment creation.
type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

// CreatePaymentRequest is the uniform payment-creation input for all adapters.
type CreatePaymentRequest struct {
	TransactionID string
	Amount        int64
	Currency      string // "idr" | "usd"
	MethodCode    string
	Customer      CustomerInfo
}

// CreatePaymentResult is what the adapter knows after talking to the provider
// (or, for manual methods, after deciding locally).
type CreatePaymentResult struct {
	Status     model.PaymentStatus // pending | paid | failed | expired
	ExternalID string              // provider order reference; "" for manual
	PaymentURL string              // redirect URL / VA number / QR payload
	ExpiresAt  time.Time
	Raw        map[string]any // provider response for audit logging
}

// StatusResult is a provider status-check answer mapped to internal vocabulary.
type StatusResult struct {
	Status  model.PaymentStatus
	Message string
}

// CallbackPayload is the inbound webhook body before verification. Amount is
// kept as the provider sent it so signature verification covers the raw field.
type CallbackPayload struct {
	MerchantCode    string
	Amount          string
	MerchantOrderID string
	ResultCode      string
	Reference       string
	Signature       string
}

// CallbackResult is a verified, trusted callback.
type CallbackResult struct {
	Provider      string
	ExternalID    string
	TransactionID string
	Status        model.PaymentStatus
	Amount        int64
	PaymentDate   time.Time
}

// MethodInfo is one entry of the provider's method-discovery answer.
type MethodInfo struct {
	Code     string
	Name     string
	ImageURL string
}

// PaymentGateway is the uniform contract every gateway variant implements.
// ProcessCallback MUST verify the signature before trusting any field; no
// persisted state may ever be updated from an unverified payload.
type PaymentGateway interface {
	Name() string
	// IsActive reports whether the adapter is configured well enough to take
	// traffic; the registry falls back to manual when false.
	IsActive() bool

	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
	CheckPaymentStatus(ctx context.Context, externalID string) (*StatusResult, error)
	ProcessCallback(ctx context.Context, payload CallbackPayload) (*CallbackResult, error)

	AvailablePaymentMethods(ctx context.Context, amount int64) ([]MethodInfo, error)
	ValidateConfiguration() error
}
