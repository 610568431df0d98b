// Package normalize turns raw record matches into canonical transactions.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"findash/internal/core"
)

var (
	// ErrAmountFault means an amount passed the record grammar but could not be
	// parsed. It points at a mismatch between extractor and normalizer.
	ErrAmountFault = errors.New("amount does not parse")
	// ErrDateFault means a date did not have three numeric groups.
	ErrDateFault = errors.New("date does not split into day-month-year")
)

// Outcome is a normalized transaction plus data-quality flags.
type Outcome struct {
	Transaction core.Transaction
	// CategoryFallback is set when the raw category was outside the closed
	// set and the transaction was filed under core.FallbackCategory.
	CategoryFallback bool
}

// Record normalizes one raw match. Unknown categories never fail; only a
// date or amount the grammar should have rejected returns an error.
func Record(raw core.RawMatch) (Outcome, error) {
	date, err := Date(raw.RawDate)
	if err != nil {
		return Outcome{}, err
	}

	amount, err := core.ParseAmount(raw.RawAmount)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %q: %v", ErrAmountFault, raw.RawAmount, err)
	}

	category, fallback := Category(raw.RawCategory)

	return Outcome{
		Transaction: core.Transaction{
			Date:        date,
			Category:    category,
			Description: raw.Description,
			Amount:      amount,
		},
		CategoryFallback: fallback,
	}, nil
}

// Date converts DD-MM-YYYY into a Date without checking the calendar.
func Date(raw string) (core.Date, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return core.Date{}, fmt.Errorf("%w: %q", ErrDateFault, raw)
	}
	day, errD := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if err := errors.Join(errD, errM, errY); err != nil {
		return core.Date{}, fmt.Errorf("%w: %q: %v", ErrDateFault, raw, err)
	}
	return core.NewDate(year, month, day), nil
}

// Category trims raw and maps it onto the closed set. The second result is
// true when the fallback category was used.
func Category(raw string) (core.Category, bool) {
	if c, ok := core.LookupCategory(strings.TrimSpace(raw)); ok {
		return c, false
	}
	return core.FallbackCategory, true
}
