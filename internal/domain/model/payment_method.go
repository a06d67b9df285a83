package model

import "time"

// PaymentMethod is a catalog row describing how a method code is collected.
// Gateway metadata here is advisory: resolution falls back to the manual
// adapter when it is missing or the provider is inactive.
type PaymentMethod struct {
	Code      string // e.g. "BC", "OV", "bank_transfer"
	Name      string
	ImageURL  string
	IsGateway bool   // collected through an external provider
	Provider  string // adapter name, e.g. "duitku"; "" for manual
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
