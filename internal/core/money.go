// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing record amounts from strings
// and formatting them for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is the single display symbol used for totals.
const CurrencySymbol = "₹"

// ParseAmount converts an unsigned decimal string into an exact decimal.
//
// Only digits with an optional single dot are accepted; signs, commas and
// exponents are rejected because record amounts are plain magnitudes.
//
// Examples:
//
//	ParseAmount("250.50") -> 250.5, nil
//	ParseAmount("12")     -> 12, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 || parts[0] == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(parts) == 2 && parts[1] == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if r > unicode.MaxASCII || !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with the display symbol and two decimals.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}
