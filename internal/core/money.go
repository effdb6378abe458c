// Package core provides money parsing and handling utilities.
//
// Amounts are kept as arbitrary-precision decimals; rounding to two fraction
// digits happens only when an amount is formatted for display.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount bounds. MaxAmount is one lakh crore rupees; MaxFractionDigits caps
// the scale an amount may be written with.
const (
	maxAmountExponent = 12
	MaxFractionDigits = 8
)

// MaxAmount is the largest amount a single expense may carry.
var MaxAmount = decimal.New(1, maxAmountExponent)

// ParseAmount converts user input to a positive decimal amount.
//
// Surrounding whitespace is ignored. Anything that is not a decimal literal,
// any value less than or equal to zero, and any value outside the range
// accepted by CheckAmount yields ErrAmountInvalid.
//
// Examples:
//
//	ParseAmount("150")     -> 150, nil
//	ParseAmount(" 40.50 ") -> 40.50, nil
//	ParseAmount("0")       -> ErrAmountInvalid
//	ParseAmount("abc")     -> ErrAmountInvalid
//	ParseAmount("1e400")   -> ErrAmountInvalid
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrAmountInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckAmount reports whether d is usable as an expense amount: strictly
// positive, at most MaxAmount and written with at most MaxFractionDigits
// fraction digits. The exponent is inspected before any comparison because
// rescaling a decimal like 1e999999999 never finishes in practice.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrAmountInvalid
	}
	exp := d.Exponent()
	if exp < -MaxFractionDigits {
		return fmt.Errorf("%w: more than %d decimal places", ErrAmountInvalid, MaxFractionDigits)
	}
	if exp > maxAmountExponent || d.Cmp(MaxAmount) > 0 {
		return fmt.Errorf("%w: larger than %s", ErrAmountInvalid, MaxAmount.String())
	}
	return nil
}
