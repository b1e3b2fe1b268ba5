package taxengine

import "github.com/shopspring/decimal"

// PromoComparison is the promotional ROI projection shown to prospects. On
// top of the informal total it surfaces the 25% non-deductible-expense cost
// of paying abroad without a local invoice, and counts only the pre-VAT
// billing subtotal as real cost because the VAT returns as a tax credit.
type PromoComparison struct {
	Amount decimal.Decimal

	TotalInformal    decimal.Decimal
	HiddenExpenseTax decimal.Decimal
	EffectiveCost    decimal.Decimal

	DeductibleCost decimal.Decimal
	RecoverableVAT decimal.Decimal

	Savings decimal.Decimal
}

// CalculatePromoComparison computes the promotional scenario. Like the
// canonical engine it is pure and performs no validation.
func CalculatePromoComparison(amount decimal.Decimal) PromoComparison {
	base := CalculateBillingTax(amount)

	hidden := base.TotalInformal.Mul(HiddenExpenseRate)
	effective := base.TotalInformal.Add(hidden)

	return PromoComparison{
		Amount:           amount,
		TotalInformal:    base.TotalInformal,
		HiddenExpenseTax: hidden,
		EffectiveCost:    effective,
		DeductibleCost:   base.SubtotalBilling,
		RecoverableVAT:   base.VATBilling,
		Savings:          effective.Sub(base.SubtotalBilling),
	}
}
