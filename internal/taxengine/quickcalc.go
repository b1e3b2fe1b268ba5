package taxengine

import "github.com/shopspring/decimal"

// QuickQuote is the administrative quick-calculation mode. It runs the local
// billing leg only, at 5.5% commission rather than the engine's 10%. The two
// rates coexist in production and must stay independently addressable until
// the business reconciles them.
type QuickQuote struct {
	Amount     decimal.Decimal
	Commission decimal.Decimal
	Subtotal   decimal.Decimal
	VAT        decimal.Decimal
	Total      decimal.Decimal
}

// CalculateQuickQuote computes the quick-calculation scenario.
func CalculateQuickQuote(amount decimal.Decimal) QuickQuote {
	commission := amount.Mul(QuickCommissionRate)
	subtotal := amount.Add(commission)
	vat := subtotal.Mul(VATRate)

	return QuickQuote{
		Amount:     amount,
		Commission: commission,
		Subtotal:   subtotal,
		VAT:        vat,
		Total:      subtotal.Add(vat),
	}
}
