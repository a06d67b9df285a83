package model

import (
	"time"

	"whatsapp-subscription-billing/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // awaiting money
	PaymentStatusPaid      PaymentStatus = "paid"      // provider confirmed settlement
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported failure
	PaymentStatusExpired   PaymentStatus = "expired"   // window lapsed unpaid
	PaymentStatusCancelled PaymentStatus = "cancelled" // admin/user cancel
)

// Payment records one attempt to collect money for a transaction. A transaction
// may cycle through several payments if earlier attempts expired, but holds at
// most one pending payment at a time.
type Payment struct {
	ID            string // UUID
	TransactionID string // UUID
	Method        string // payment-method code, e.g. "BC", "OV", "bank_transfer"
	Amount        int64
	ServiceFee    int64
	Status        PaymentStatus
	ExternalID    string     // provider merchant order reference ("" for manual)
	PaymentURL    string     // provider redirect/VA/QR payload, if any
	ExpiresAt     *time.Time // non-nil only while pending
	PaymentDate   *time.Time // set when paid
	ApprovedBy    string     // admin audit: who approved a manual payment
	Note          string     // admin audit note
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled},
	// paid/failed/expired/cancelled are terminal
}

// CanTransition reports whether from -> to is a legal payment move.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change in place. Moving to paid stamps the
// payment date; leaving pending always drops the expiry window.
func (p *Payment) Transition(to PaymentStatus, now time.Time) error {
	if !p.Status.CanTransition(to) {
		return &domain.TransitionError{Entity: "payment", From: string(p.Status), To: string(to)}
	}
	p.Status = to
	p.ExpiresAt = nil
	if to == PaymentStatusPaid && p.PaymentDate == nil {
		p.PaymentDate = &now
	}
	p.UpdatedAt = now
	return nil
}

// CountsDown reports whether expiresAt is still meaningful for this status.
func (s PaymentStatus) CountsDown() bool { return s == PaymentStatusPending }
