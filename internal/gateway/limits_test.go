//go:build !integration

package gateway

import (
	"errors"
	"testing"

	"whatsapp-subscription-billing/internal/domain"
)

func TestValidateGatewayAmount(t *testing.T) {
	t.Run("retail cap rejects large amounts", func(t *testing.T) {
		err := ValidateGatewayAmount("IR", 6_000_000, "idr")
		if err == nil {
			t.Fatal("6M idr should exceed the retail cap")
		}
		var le *domain.LimitError
		if !errors.As(err, &le) {
			t.Fatalf("expected LimitError, got %v", err)
		}
		if le.Max != 5_000_000 {
			t.Errorf("error should carry the offending cap, got %d", le.Max)
		}
	})

	t.Run("virtual account cap admits the same amount", func(t *testing.T) {
		if err := ValidateGatewayAmount("BC", 6_000_000, "idr"); err != nil {
			t.Fatalf("6M idr fits the VA cap: %v", err)
		}
	})

	t.Run("unknown codes fail closed", func(t *testing.T) {
		if err := ValidateGatewayAmount("UNKNOWN_CODE", 1, "idr"); err == nil {
			t.Fatal("unknown method code must be rejected")
		}
	})

	t.Run("usd amounts are converted before comparison", func(t *testing.T) {
		// 1 usd * 15000 = 15000 idr, above every minimum
		if err := ValidateGatewayAmount("BC", 1, "usd"); err != nil {
			t.Errorf("1 usd should pass the VA minimum: %v", err)
		}
		// 10000 usd = 150M idr, above the VA cap
		if err := ValidateGatewayAmount("BC", 10_000, "usd"); err == nil {
			t.Error("10k usd should exceed the VA cap")
		}
	})
}

func TestValidateManualAmount(t *testing.T) {
	t.Run("near-zero minimum and 100M cap", func(t *testing.T) {
		if err := ValidateManualAmount("bank_transfer", 1, "idr"); err != nil {
			t.Errorf("1 idr should pass: %v", err)
		}
		if err := ValidateManualAmount("bank_transfer", 100_000_000, "idr"); err != nil {
			t.Errorf("100M idr should pass: %v", err)
		}
		if err := ValidateManualAmount("bank_transfer", 100_000_001, "idr"); err == nil {
			t.Error("over 100M idr should fail")
		}
	})

	t.Run("usd uses its own cap", func(t *testing.T) {
		if err := ValidateManualAmount("bank_transfer", 6000, "usd"); err != nil {
			t.Errorf("6000 usd should pass: %v", err)
		}
		if err := ValidateManualAmount("bank_transfer", 6001, "usd"); err == nil {
			t.Error("6001 usd should fail")
		}
	})
}
