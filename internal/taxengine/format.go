package taxengine

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount as a grouped US-dollar string with two decimal
// places, e.g. "$6,325.00". Display concern only; no business logic.
func FormatUSD(amount decimal.Decimal) string {
	f, _ := amount.Float64()
	return usdPrinter.Sprintf("$%v", number.Decimal(f,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
