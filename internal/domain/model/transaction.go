package model

import (
	"time"

	"whatsapp-subscription-billing/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusCreated    TransactionStatus = "created"
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusInProgress TransactionStatus = "in_progress"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
	TransactionStatusExpired    TransactionStatus = "expired"
)

type TransactionType string

const (
	// The only purchase type sold today.
	TransactionTypeWhatsAppSubscription TransactionType = "whatsapp_subscription"
)

// Transaction represents one purchase intent. It is never deleted; terminal
// statuses make it soft-terminal.
type Transaction struct {
	ID               string // UUID
	UserID           string // UUID
	Type             TransactionType
	OriginalAmount   int64
	DiscountAmount   int64
	ServiceFeeAmount int64
	FinalAmount      int64
	Currency         string     // "idr" | "usd"
	Status           TransactionStatus
	ExpiresAt        *time.Time // non-nil only while status is created/pending
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// transactionTransitions is the full legality table. Anything absent is
// rejected. One sanctioned exception lives outside it: when a pending
// transaction's only payment attempt is cancelled, settlement reverts it to
// created through a conditional UPDATE (settlementUC.applyPaymentStatus) so a
// fresh attempt can be made. The pure machine stays strict; nothing else may
// walk backwards.
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCreated:    {TransactionStatusPending, TransactionStatusCancelled, TransactionStatusExpired},
	TransactionStatusPending:    {TransactionStatusInProgress, TransactionStatusCancelled, TransactionStatusExpired},
	TransactionStatusInProgress: {TransactionStatusSuccess, TransactionStatusCancelled},
	TransactionStatusSuccess:    {},
	TransactionStatusCancelled:  {},
	TransactionStatusExpired:    {},
}

// CanTransition reports whether from -> to is a legal transaction move.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	for _, next := range transactionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change in place, clearing the expiry window on
// every move out of the countdown states. Illegal moves return a TransitionError.
func (t *Transaction) Transition(to TransactionStatus, now time.Time) error {
	if !t.Status.CanTransition(to) {
		return &domain.TransitionError{Entity: "transaction", From: string(t.Status), To: string(to)}
	}
	t.Status = to
	if to != TransactionStatusCreated && to != TransactionStatusPending {
		t.ExpiresAt = nil
	}
	t.UpdatedAt = now
	return nil
}

// CountsDown reports whether expiresAt is still meaningful for this status.
func (s TransactionStatus) CountsDown() bool {
	return s == TransactionStatusCreated || s == TransactionStatusPending
}

// AcceptsPayment reports whether a new payment attempt may be created.
func (t *Transaction) AcceptsPayment(now time.Time) bool {
	if t.Status != TransactionStatusCreated && t.Status != TransactionStatusPending {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}
