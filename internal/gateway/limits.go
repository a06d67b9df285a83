package gateway

import "whatsapp-subscription-billing/internal/domain"

// AmountLimits is a [min,max] range in IDR minor units.
type AmountLimits struct {
	Min int64
	Max int64
}

// usdToIDRRate is a rough display rate reused for limit comparison. Cross-
// currency validation here is intentionally approximate; no live FX source
// exists in this system.
const usdToIDRRate = 15000

// Manual bank transfer accepts nearly anything a human operator would approve.
var manualLimits = AmountLimits{Min: 1, Max: 100_000_000}

// manualLimitsUSD caps the alternate currency before conversion.
const manualMaxUSD = 6000

// Per-method gateway limits in IDR. Retail/cash caps lowest, e-wallets and QR
// mid-range, virtual accounts and cards highest.
var gatewayLimitsByMethod = map[string]AmountLimits{
	// Credit card
	"VC": {Min: 10_000, Max: 100_000_000},

	// Virtual accounts
	"BC": {Min: 10_000, Max: 50_000_000},
	"M2": {Min: 10_000, Max: 50_000_000},
	"VA": {Min: 10_000, Max: 50_000_000},
	"I1": {Min: 10_000, Max: 50_000_000},
	"B1": {Min: 10_000, Max: 50_000_000},
	"BT": {Min: 10_000, Max: 50_000_000},
	"A1": {Min: 10_000, Max: 50_000_000},
	"AG": {Min: 10_000, Max: 50_000_000},
	"NC": {Min: 10_000, Max: 50_000_000},
	"BR": {Min: 10_000, Max: 50_000_000},
	"S1": {Min: 10_000, Max: 50_000_000},

	// Retail / cash
	"FT": {Min: 10_000, Max: 5_000_000},
	"IR": {Min: 10_000, Max: 5_000_000},

	// E-wallets and QR
	"OV": {Min: 10_000, Max: 10_000_000},
	"SA": {Min: 10_000, Max: 10_000_000},
	"LA": {Min: 10_000, Max: 10_000_000},
	"OL": {Min: 10_000, Max: 10_000_000},
	"DA": {Min: 10_000, Max: 10_000_000},
	"SP": {Min: 10_000, Max: 10_000_000},
	"NQ": {Min: 10_000, Max: 10_000_000},
	"LF": {Min: 10_000, Max: 10_000_000},
}

// GatewayLimits returns the limits for a gateway method code; ok is false for
// unknown codes (validation fails closed).
func GatewayLimits(methodCode string) (AmountLimits, bool) {
	l, ok := gatewayLimitsByMethod[methodCode]
	return l, ok
}

// ValidateGatewayAmount checks a requested amount against the per-method
// gateway table. Unknown method codes are rejected, never defaulted.
func ValidateGatewayAmount(methodCode string, amount int64, currency string) error {
	limits, ok := GatewayLimits(methodCode)
	if !ok {
		return &domain.LimitError{MethodCode: methodCode, Amount: amount, Currency: currency}
	}
	return checkRange(methodCode, amount, currency, limits)
}

// ValidateManualAmount checks a requested amount against the generous manual
// bank-transfer range.
func ValidateManualAmount(methodCode string, amount int64, currency string) error {
	if currency == "usd" {
		if amount < 1 || amount > manualMaxUSD {
			return &domain.LimitError{MethodCode: methodCode, Amount: amount, Min: 1, Max: manualMaxUSD, Currency: currency}
		}
		return nil
	}
	return checkRange(methodCode, amount, currency, manualLimits)
}

func checkRange(methodCode string, amount int64, currency string, limits AmountLimits) error {
	compared := amount
	if currency == "usd" {
		compared = amount * usdToIDRRate
	}
	if compared < limits.Min || compared > limits.Max {
		return &domain.LimitError{MethodCode: methodCode, Amount: amount, Min: limits.Min, Max: limits.Max, Currency: currency}
	}
	return nil
}
