package model

import (
	"time"

	"whatsapp-subscription-billing/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// WhatsAppSubscription is the entitlement a paid transaction provisions.
// Keyed by (user, package): activation extends an existing row rather than
// creating a duplicate.
type WhatsAppSubscription struct {
	ID        string // UUID
	UserID    string // UUID
	PackageID string // UUID
	Status    SubscriptionStatus
	ExpiredAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWhatsAppSubscription creates a fresh entitlement running duration from now.
func NewWhatsAppSubscription(id, userID, packageID string, duration PackageDuration, now time.Time) (*WhatsAppSubscription, error) {
	if id == "" || userID == "" || packageID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &WhatsAppSubscription{
		ID:        id,
		UserID:    userID,
		PackageID: packageID,
		Status:    SubscriptionStatusActive,
		ExpiredAt: duration.AddTo(now),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Extend pushes the expiry out by the purchased duration. An already lapsed
// subscription restarts from now instead of its stale expiry.
func (s *WhatsAppSubscription) Extend(duration PackageDuration, now time.Time) {
	base := s.ExpiredAt
	if now.After(base) {
		base = now
	}
	s.ExpiredAt = duration.AddTo(base)
	s.Status = SubscriptionStatusActive
	s.UpdatedAt = now
}
