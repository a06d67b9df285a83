package model

import "time"

// PackageDuration is the purchased entitlement length.
type PackageDuration string

const (
	PackageDurationMonth PackageDuration = "month"
	PackageDurationYear  PackageDuration = "year"
)

// AddTo advances t by one calendar month or year. Unknown values fall back to
// a month so a corrupt row still grants something rather than panicking.
func (d PackageDuration) AddTo(t time.Time) time.Time {
	switch d {
	case PackageDurationYear:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// WhatsAppPackage is a sellable API package (message quota tier).
type WhatsAppPackage struct {
	ID           string // UUID
	Name         string
	MonthlyPrice int64 // idr minor units
	YearlyPrice  int64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PurchaseDetailStatus string

const (
	PurchaseDetailStatusPending    PurchaseDetailStatus = "pending"
	PurchaseDetailStatusProcessing PurchaseDetailStatus = "processing"
	PurchaseDetailStatusSuccess    PurchaseDetailStatus = "success"
	PurchaseDetailStatusFailed     PurchaseDetailStatus = "failed"
)

// PurchaseDetail records what a transaction buys: one package for one duration.
// Its status is the idempotency anchor for activation: the conditional flip
// pending -> processing is won by exactly one activator.
type PurchaseDetail struct {
	ID            string // UUID
	TransactionID string // UUID
	PackageID     string // UUID
	Duration      PackageDuration
	Status        PurchaseDetailStatus
	StartsAt      *time.Time
	EndsAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
