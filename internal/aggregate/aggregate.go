// Package aggregate sums transactions inside a time window.
package aggregate

import (
	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// Result is recomputed on every call and never cached.
type Result struct {
	Filter core.TimeFilter
	Today  core.Date
	Count  int
	Total  decimal.Decimal
	// ByCategory holds only categories that occur in the window.
	ByCategory map[core.Category]decimal.Decimal
	// ByDateCategory holds only dates that occur in the window.
	ByDateCategory map[core.Date]map[core.Category]decimal.Decimal
}

// Run keeps the transactions selected by filter relative to today and sums them.
func Run(txs []core.Transaction, filter core.TimeFilter, today core.Date) Result {
	res := Result{
		Filter:         filter,
		Today:          today,
		Total:          decimal.Zero,
		ByCategory:     make(map[core.Category]decimal.Decimal),
		ByDateCategory: make(map[core.Date]map[core.Category]decimal.Decimal),
	}

	for _, tx := range txs {
		if !filter.Includes(tx.Date, today) {
			continue
		}
		res.Count++
		res.Total = res.Total.Add(tx.Amount)
		res.ByCategory[tx.Category] = res.ByCategory[tx.Category].Add(tx.Amount)

		cells, ok := res.ByDateCategory[tx.Date]
		if !ok {
			cells = make(map[core.Category]decimal.Decimal)
			res.ByDateCategory[tx.Date] = cells
		}
		cells[tx.Category] = cells[tx.Category].Add(tx.Amount)
	}

	return res
}

// CategoryTotals lists the categories present in the window in display order.
func (r Result) CategoryTotals() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(r.ByCategory))
	for _, c := range core.Categories() {
		if amt, ok := r.ByCategory[c]; ok {
			out = append(out, core.CategoryAmount{Category: c, Amount: amt})
		}
	}
	return out
}

// Empty reports whether no transaction fell inside the window.
func (r Result) Empty() bool {
	return r.Count == 0
}
