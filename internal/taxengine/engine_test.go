package taxengine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestValidAmount(t *testing.T) {
	cases := []struct {
		amount string
		want   bool
	}{
		{"0", false},
		{"-1", false},
		{"0.01", true},
		{"5000", true},
		{"999999.99", true},
		{"1000000", false},
		{"1000001", false},
	}
	for _, tc := range cases {
		if got := ValidAmount(dec(tc.amount)); got != tc.want {
			t.Errorf("ValidAmount(%s) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func TestCalculateBillingTaxFigures(t *testing.T) {
	result := CalculateBillingTax(dec("5000"))

	if !result.Commission.Equal(dec("500")) {
		t.Errorf("commission = %s, want 500", result.Commission)
	}
	if !result.SubtotalBilling.Equal(dec("5500")) {
		t.Errorf("billing subtotal = %s, want 5500", result.SubtotalBilling)
	}
	if !result.VATBilling.Equal(dec("825")) {
		t.Errorf("billing VAT = %s, want 825", result.VATBilling)
	}
	if !result.TotalBilling.Equal(dec("6325")) {
		t.Errorf("billing total = %s, want 6325", result.TotalBilling)
	}

	if !result.ISDInformal.Equal(dec("250")) {
		t.Errorf("ISD = %s, want 250", result.ISDInformal)
	}
	if !result.SubtotalInformal.Equal(dec("5250")) {
		t.Errorf("informal subtotal = %s, want 5250", result.SubtotalInformal)
	}
	if !result.VATInformal.Equal(dec("787.5")) {
		t.Errorf("informal VAT = %s, want 787.5", result.VATInformal)
	}
	if !result.TotalInformal.Equal(dec("6037.5")) {
		t.Errorf("informal total = %s, want 6037.5", result.TotalInformal)
	}
}

func TestCalculateBillingTaxSavingsIdentity(t *testing.T) {
	amounts := []string{"0.01", "1", "100", "4999.37", "250000", "999999.99"}
	for _, raw := range amounts {
		amount := dec(raw)
		result := CalculateBillingTax(amount)

		want := result.TotalInformal.Sub(result.SubtotalBilling)
		if !result.Savings.Equal(want) {
			t.Errorf("amount %s: savings = %s, want %s", raw, result.Savings, want)
		}

		for name, figure := range map[string]decimal.Decimal{
			"commission":        result.Commission,
			"subtotal_billing":  result.SubtotalBilling,
			"vat_billing":       result.VATBilling,
			"total_billing":     result.TotalBilling,
			"isd_informal":      result.ISDInformal,
			"subtotal_informal": result.SubtotalInformal,
			"vat_informal":      result.VATInformal,
			"total_informal":    result.TotalInformal,
		} {
			if figure.IsNegative() {
				t.Errorf("amount %s: %s is negative (%s)", raw, name, figure)
			}
		}
	}
}

func TestCalculateBillingTaxMultiplierIdentities(t *testing.T) {
	amounts := []string{"1", "5000", "123456.78"}
	for _, raw := range amounts {
		amount := dec(raw)
		result := CalculateBillingTax(amount)

		if !result.SubtotalBilling.Equal(amount.Mul(dec("1.10"))) {
			t.Errorf("amount %s: subtotal != amount*1.10 (%s)", raw, result.SubtotalBilling)
		}
		if !result.TotalBilling.Equal(result.SubtotalBilling.Mul(dec("1.15"))) {
			t.Errorf("amount %s: total != subtotal*1.15 (%s)", raw, result.TotalBilling)
		}
	}
}

func TestCalculateBillingTaxIsDeterministic(t *testing.T) {
	amount := dec("7777.77")
	first := CalculateBillingTax(amount)
	second := CalculateBillingTax(amount)
	if !first.TotalBilling.Equal(second.TotalBilling) || !first.Savings.Equal(second.Savings) {
		t.Fatal("repeated invocations must produce identical results")
	}
}

func TestCalculatePromoComparison(t *testing.T) {
	result := CalculatePromoComparison(dec("1000"))

	// informal: 1000 -> 1050 -> 1207.50; hidden layer adds 25% of the total.
	if !result.TotalInformal.Equal(dec("1207.5")) {
		t.Errorf("informal total = %s, want 1207.5", result.TotalInformal)
	}
	if !result.HiddenExpenseTax.Equal(dec("301.875")) {
		t.Errorf("hidden expense = %s, want 301.875", result.HiddenExpenseTax)
	}
	if !result.EffectiveCost.Equal(dec("1509.375")) {
		t.Errorf("effective cost = %s, want 1509.375", result.EffectiveCost)
	}
	if !result.DeductibleCost.Equal(dec("1100")) {
		t.Errorf("deductible cost = %s, want 1100", result.DeductibleCost)
	}
	if !result.Savings.Equal(dec("409.375")) {
		t.Errorf("savings = %s, want 409.375", result.Savings)
	}
}

func TestCalculateQuickQuoteUsesItsOwnRate(t *testing.T) {
	quote := CalculateQuickQuote(dec("1000"))

	if !quote.Commission.Equal(dec("55")) {
		t.Errorf("commission = %s, want 55", quote.Commission)
	}
	if !quote.Subtotal.Equal(dec("1055")) {
		t.Errorf("subtotal = %s, want 1055", quote.Subtotal)
	}
	if !quote.Total.Equal(dec("1213.25")) {
		t.Errorf("total = %s, want 1213.25", quote.Total)
	}

	// The quick mode must not silently inherit the canonical 10% rate.
	engine := CalculateBillingTax(dec("1000"))
	if quote.Commission.Equal(engine.Commission) {
		t.Fatal("quick quote commission must differ from the canonical engine")
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"6325":      "$6,325.00",
		"0.5":       "$0.50",
		"1234567.8": "$1,234,567.80",
	}
	for raw, want := range cases {
		if got := FormatUSD(dec(raw)); got != want {
			t.Errorf("FormatUSD(%s) = %q, want %q", raw, got, want)
		}
	}
}
