package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/api/validators"
	"github.com/davidcarrillo/adfactura-backend/internal/taxengine"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

type CalculatorBody struct {
	Amount string `json:"amount" validate:"required"`
}

// BillingTaxResponse is the canonical two-scenario projection.
type BillingTaxResponse struct {
	Amount string `json:"amount"`

	Commission      string `json:"commission"`
	SubtotalBilling string `json:"subtotalBilling"`
	VATBilling      string `json:"vatBilling"`
	TotalBilling    string `json:"totalBilling"`

	ISDInformal      string `json:"isdInformal"`
	SubtotalInformal string `json:"subtotalInformal"`
	VATInformal      string `json:"vatInformal"`
	TotalInformal    string `json:"totalInformal"`

	Savings          string `json:"savings"`
	FormattedTotal   string `json:"formattedTotal"`
	FormattedSavings string `json:"formattedSavings"`
}

func CalculatorBilling(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := decodeCalculatorAmount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projection := taxengine.CalculateBillingTax(amount)
		responses.WriteSuccess(w, BillingTaxResponse{
			Amount:           projection.Amount.String(),
			Commission:       projection.Commission.String(),
			SubtotalBilling:  projection.SubtotalBilling.String(),
			VATBilling:       projection.VATBilling.String(),
			TotalBilling:     projection.TotalBilling.String(),
			ISDInformal:      projection.ISDInformal.String(),
			SubtotalInformal: projection.SubtotalInformal.String(),
			VATInformal:      projection.VATInformal.String(),
			TotalInformal:    projection.TotalInformal.String(),
			Savings:          projection.Savings.String(),
			FormattedTotal:   taxengine.FormatUSD(projection.TotalBilling),
			FormattedSavings: taxengine.FormatUSD(projection.Savings),
		})
	}
}

// PromoComparisonResponse is the prospect-facing ROI projection.
type PromoComparisonResponse struct {
	Amount string `json:"amount"`

	TotalInformal    string `json:"totalInformal"`
	HiddenExpenseTax string `json:"hiddenExpenseTax"`
	EffectiveCost    string `json:"effectiveCost"`

	DeductibleCost string `json:"deductibleCost"`
	RecoverableVAT string `json:"recoverableVat"`

	Savings          string `json:"savings"`
	FormattedSavings string `json:"formattedSavings"`
}

func CalculatorPromo(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := decodeCalculatorAmount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projection := taxengine.CalculatePromoComparison(amount)
		responses.WriteSuccess(w, PromoComparisonResponse{
			Amount:           projection.Amount.String(),
			TotalInformal:    projection.TotalInformal.String(),
			HiddenExpenseTax: projection.HiddenExpenseTax.String(),
			EffectiveCost:    projection.EffectiveCost.String(),
			DeductibleCost:   projection.DeductibleCost.String(),
			RecoverableVAT:   projection.RecoverableVAT.String(),
			Savings:          projection.Savings.String(),
			FormattedSavings: taxengine.FormatUSD(projection.Savings),
		})
	}
}

// QuickQuoteResponse is the admin quick-quote projection.
type QuickQuoteResponse struct {
	Amount         string `json:"amount"`
	Commission     string `json:"commission"`
	Subtotal       string `json:"subtotal"`
	VAT            string `json:"vat"`
	Total          string `json:"total"`
	FormattedTotal string `json:"formattedTotal"`
}

func CalculatorQuick(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, err := decodeCalculatorAmount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote := taxengine.CalculateQuickQuote(amount)
		responses.WriteSuccess(w, QuickQuoteResponse{
			Amount:         quote.Amount.String(),
			Commission:     quote.Commission.String(),
			Subtotal:       quote.Subtotal.String(),
			VAT:            quote.VAT.String(),
			Total:          quote.Total.String(),
			FormattedTotal: taxengine.FormatUSD(quote.Total),
		})
	}
}

func decodeCalculatorAmount(r *http.Request) (decimal.Decimal, error) {
	var body CalculatorBody
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return decimal.Decimal{}, err
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal number").
			WithDetails(map[string]any{"field": "amount"})
	}
	if !taxengine.ValidAmount(amount) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be above zero and below 1000000").
			WithDetails(map[string]any{"field": "amount"})
	}
	return amount, nil
}
