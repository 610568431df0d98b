// Package series turns an aggregation into chart-ready series on a shared
// date axis.
package series

import (
	"slices"

	"github.com/shopspring/decimal"

	"findash/internal/aggregate"
	"findash/internal/core"
)

// TotalLabel names the synthetic series summing every category per date.
const TotalLabel = "Total"

// ChartSeries is one line of the chart. Color is empty for the total.
type ChartSeries struct {
	Label  string
	Color  string
	Points []decimal.Decimal
}

// Chart is aligned on DateAxis: Points[i] of every series belongs to DateAxis[i].
type Chart struct {
	DateAxis   []core.Date
	Categories []ChartSeries
	Total      ChartSeries
}

// Build produces one zero-filled series per category in display order plus
// the total series. It does not look at the filter, so a single-day window
// yields one-point series.
func Build(res aggregate.Result) Chart {
	axis := make([]core.Date, 0, len(res.ByDateCategory))
	for d := range res.ByDateCategory {
		axis = append(axis, d)
	}
	slices.SortFunc(axis, core.Date.Compare)

	categories := core.Categories()
	chart := Chart{
		DateAxis:   axis,
		Categories: make([]ChartSeries, 0, len(categories)),
		Total: ChartSeries{
			Label:  TotalLabel,
			Points: make([]decimal.Decimal, len(axis)),
		},
	}

	for _, c := range categories {
		s := ChartSeries{
			Label:  c.String(),
			Color:  c.Color(),
			Points: make([]decimal.Decimal, len(axis)),
		}
		for i, d := range axis {
			if amt, ok := res.ByDateCategory[d][c]; ok {
				s.Points[i] = amt
			} else {
				s.Points[i] = decimal.Zero
			}
		}
		chart.Categories = append(chart.Categories, s)
	}

	for i, d := range axis {
		sum := decimal.Zero
		for _, amt := range res.ByDateCategory[d] {
			sum = sum.Add(amt)
		}
		chart.Total.Points[i] = sum
	}

	return chart
}

// Floats converts points for renderers that expect float64.
func (s ChartSeries) Floats() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.InexactFloat64()
	}
	return out
}
