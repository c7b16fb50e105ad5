// Package money holds the monetary boundary rules. Amounts are exact
// decimals stored as DECIMAL(15,2).
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"mankeu/pkg/apperr"
)

// Scale is the number of fractional digits kept at the storage boundary.
const Scale = 2

// limit is the first magnitude that no longer fits DECIMAL(15,2).
var limit = decimal.New(1, 15-Scale)

// Check validates an input amount: at most two fractional digits and within
// the column range. field names the offending input in the error.
func Check(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(Scale)) {
		return apperr.Validation("%s must have at most %d decimal places", field, Scale)
	}
	if d.Abs().GreaterThanOrEqual(limit) {
		return apperr.Validation("%s is out of range", field)
	}
	return nil
}

// CheckNonNegative is Check plus a sign rule, for balances and limits that
// cannot go below zero.
func CheckNonNegative(field string, d decimal.Decimal) error {
	if err := Check(field, d); err != nil {
		return err
	}
	if d.IsNegative() {
		return apperr.Validation("%s must not be negative", field)
	}
	return nil
}

// Parse reads a plain decimal string such as "-1250.50".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperr.Validation("invalid amount %q", s)
	}
	return d, nil
}

// Group formats the integer part with dot separators every three digits,
// the way Rupiah amounts are printed (1250000.5 -> "1.250.000,50").
func Group(d decimal.Decimal) string {
	s := d.Abs().StringFixed(Scale)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
