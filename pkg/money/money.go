// Package money converts between user-facing decimal amount strings and the
// integer minor-unit (cents) representation used everywhere else. Stored and
// compared amounts are always int64 cents; floats never touch persistence.
package money

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrNotANumber is returned when an amount string cannot be parsed as a decimal.
var ErrNotANumber = errors.New("amount is not a valid number")

var currencyRE = regexp.MustCompile(`^[A-Z]{3}$`)

// ParseDecimal converts a decimal amount string (e.g. "12.50") into minor
// currency units: round(value * 100). Parsing is exact; no float arithmetic.
func ParseDecimal(s string) (int64, error) {
	if s == "" {
		return 0, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrNotANumber
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, ErrNotANumber
	}
	return cents.IntPart(), nil
}

// Format renders minor units as a plain decimal string with two fraction
// digits, e.g. 1250 -> "12.50". Locale/currency decoration is left to callers.
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ValidCurrencyCode reports whether s is a 3-letter uppercase currency code.
func ValidCurrencyCode(s string) bool {
	return currencyRE.MatchString(s)
}
