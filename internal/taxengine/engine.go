package taxengine

import "github.com/shopspring/decimal"

// Jurisdictional rates. ISD is the exit-of-foreign-currency tax charged on
// direct payments abroad; VAT applies on both channels but is recoverable as
// a tax credit only when billed locally.
var (
	// CommissionRate is the intermediary fee of the canonical engine.
	CommissionRate = decimal.RequireFromString("0.10")
	// QuickCommissionRate drives the admin quick-calculation screen. It has
	// never been reconciled with CommissionRate; the two are separate
	// business modes on purpose.
	QuickCommissionRate = decimal.RequireFromString("0.055")
	VATRate             = decimal.RequireFromString("0.15")
	ISDRate             = decimal.RequireFromString("0.05")
	// HiddenExpenseRate is the non-deductible-expense layer the promotional
	// calculator adds on top of the informal total.
	HiddenExpenseRate = decimal.RequireFromString("0.25")
)

var maxAmount = decimal.NewFromInt(1_000_000)

// BillingTax holds the two parallel cost projections for one requested
// amount: paying the platform directly (informal) versus billing through the
// local intermediary.
type BillingTax struct {
	Amount decimal.Decimal

	Commission      decimal.Decimal
	SubtotalBilling decimal.Decimal
	VATBilling      decimal.Decimal
	TotalBilling    decimal.Decimal

	ISDInformal      decimal.Decimal
	SubtotalInformal decimal.Decimal
	VATInformal      decimal.Decimal
	TotalInformal    decimal.Decimal

	// Savings compares the informal total against the pre-VAT billing
	// subtotal, since locally billed VAT comes back as a credit.
	Savings decimal.Decimal
}

// ValidAmount is the engine's validity predicate. The computation functions
// perform no validation themselves; callers must check first.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThan(maxAmount)
}

// CalculateBillingTax is the canonical engine: a pure, deterministic mapping
// from a requested ad spend to both cost projections. No rounding happens
// here; display layers format to two decimals.
func CalculateBillingTax(amount decimal.Decimal) BillingTax {
	commission := amount.Mul(CommissionRate)
	subtotalBilling := amount.Add(commission)
	vatBilling := subtotalBilling.Mul(VATRate)
	totalBilling := subtotalBilling.Add(vatBilling)

	isd := amount.Mul(ISDRate)
	subtotalInformal := amount.Add(isd)
	vatInformal := subtotalInformal.Mul(VATRate)
	totalInformal := subtotalInformal.Add(vatInformal)

	return BillingTax{
		Amount:           amount,
		Commission:       commission,
		SubtotalBilling:  subtotalBilling,
		VATBilling:       vatBilling,
		TotalBilling:     totalBilling,
		ISDInformal:      isd,
		SubtotalInformal: subtotalInformal,
		VATInformal:      vatInformal,
		TotalInformal:    totalInformal,
		Savings:          totalInformal.Sub(subtotalBilling),
	}
}
