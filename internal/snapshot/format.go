package snapshot

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	percentPlaces = 4
	amountPlaces  = 4
	usdPlaces     = 2
)

// FormatPercent renders a percentage with four decimals and a % suffix.
func FormatPercent(value decimal.Decimal) string {
	return value.StringFixed(percentPlaces) + "%"
}

// FormatFixed renders value with four decimals.
func FormatFixed(value decimal.Decimal) string {
	return value.StringFixed(amountPlaces)
}

// FormatUSD renders value as dollars with thousands separators, e.g. $1,234.57.
func FormatUSD(value decimal.Decimal) string {
	rounded := value.Round(usdPlaces)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	fixed := rounded.StringFixed(usdPlaces)
	whole, frac, _ := strings.Cut(fixed, ".")
	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + fixed
	}
	return sign + "$" + humanize.BigComma(wholeInt) + "." + frac
}
