package dashboard

import (
	"findash/internal/aggregate"
	"findash/internal/core"
	"findash/internal/series"
)

// SeriesView is one chart series in renderer form.
type SeriesView struct {
	Label  string    `json:"label"`
	Color  string    `json:"color,omitempty"`
	Points []float64 `json:"points"`
}

// View is the data contract handed to the renderer. Category totals list
// only categories present in the window, in display order, each with its
// palette color.
type View struct {
	Filter         string       `json:"filter"`
	Today          string       `json:"today"`
	Currency       string       `json:"currency"`
	Count          int          `json:"count"`
	Total          float64      `json:"total"`
	CategoryLabels []string     `json:"categoryLabels"`
	CategoryTotals []float64    `json:"categoryTotals"`
	CategoryColors []string     `json:"categoryColors"`
	DateAxis       []string     `json:"dateAxis"`
	CategorySeries []SeriesView `json:"categorySeries"`
	TotalSeries    SeriesView   `json:"totalSeries"`
}

// NewView converts an aggregation and its chart into renderer form.
func NewView(res aggregate.Result, chart series.Chart) View {
	v := View{
		Filter:         res.Filter.String(),
		Today:          res.Today.String(),
		Currency:       core.CurrencySymbol,
		Count:          res.Count,
		Total:          res.Total.InexactFloat64(),
		CategoryLabels: []string{},
		CategoryTotals: []float64{},
		CategoryColors: []string{},
		DateAxis:       make([]string, len(chart.DateAxis)),
		CategorySeries: make([]SeriesView, len(chart.Categories)),
		TotalSeries: SeriesView{
			Label:  chart.Total.Label,
			Points: chart.Total.Floats(),
		},
	}

	for _, ca := range res.CategoryTotals() {
		v.CategoryLabels = append(v.CategoryLabels, ca.Category.String())
		v.CategoryTotals = append(v.CategoryTotals, ca.Amount.InexactFloat64())
		v.CategoryColors = append(v.CategoryColors, ca.Category.Color())
	}
	for i, d := range chart.DateAxis {
		v.DateAxis[i] = d.String()
	}
	for i, s := range chart.Categories {
		v.CategorySeries[i] = SeriesView{Label: s.Label, Color: s.Color, Points: s.Floats()}
	}
	return v
}
