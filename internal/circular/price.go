package circular

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizePrice converts a raw circular price string to the canonical
// per-unit value: thousands separators and surrounding whitespace stripped,
// divided by 1000, rounded to 3 decimals. ok is false when the remainder is
// empty or non-numeric.
func NormalizePrice(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d.Div(decimal.NewFromInt(1000)).Round(3), true
}
