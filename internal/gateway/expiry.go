package gateway

import "time"

// Provider-declared validity windows in minutes, per method code. These values
// are a compatibility contract with the provider, not tunables: the provider
// voids anything we keep alive longer than its own window.
var expiryMinutesByMethod = map[string]int{
	// Credit card
	"VC": 30,

	// Virtual accounts
	"BC": 1440, // BCA
	"M2": 1440, // Mandiri
	"VA": 1440, // Maspion
	"I1": 1440, // BNI
	"B1": 1440, // CIMB Niaga
	"BT": 1440, // Permata
	"A1": 1440, // ATM Bersama
	"AG": 1440, // Artha Graha
	"NC": 1440, // Neo Commerce
	"BR": 1440, // BRI
	"S1": 1440, // Sahabat Sampoerna

	// Retail / cash
	"FT": 1440, // Pegadaian / ALFA
	"IR": 1440, // Indomaret

	// E-wallets and QR
	"OV": 15,   // OVO push
	"SA": 10,   // ShopeePay app link
	"LA": 10,   // LinkAja app link
	"OL": 10,   // OVO link
	"DA": 1440, // DANA
	"SP": 1440, // ShopeePay QRIS
	"NQ": 1440, // Nobu QRIS
	"LF": 1440, // LinkAja fixed
}

const (
	defaultExpiryMinutes = 1440
	manualExpiryWindow   = 24 * time.Hour
)

// ExpiryMinutes returns the provider window for a method code; unknown codes
// get the default day-long window.
func ExpiryMinutes(methodCode string) int {
	if m, ok := expiryMinutesByMethod[methodCode]; ok {
		return m
	}
	return defaultExpiryMinutes
}

// ExpiryDuration is ExpiryMinutes as a time.Duration.
func ExpiryDuration(methodCode string) time.Duration {
	return time.Duration(ExpiryMinutes(methodCode)) * time.Minute
}

// ComputeExpiresAt returns the moment an unpaid payment stops being honorable.
// Manual (non-gateway) methods always get a flat 24-hour window regardless of
// the table.
func ComputeExpiresAt(methodCode string, manual bool, now time.Time) time.Time {
	if manual {
		return now.Add(manualExpiryWindow)
	}
	return now.Add(ExpiryDuration(methodCode))
}
