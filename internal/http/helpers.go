package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

var templateFuncs = template.FuncMap{
	"amount": formatAmount,
}

// parseFilter reads the filter query value; empty means today.
func parseFilter(v string) (core.TimeFilter, error) {
	if strings.TrimSpace(v) == "" {
		return core.Today, nil
	}
	return core.ParseTimeFilter(v)
}

// parseToday returns the date override in YYYY-MM-DD form, or the current
// date in the server's location when empty.
func (s *Server) parseToday(v string) (core.Date, error) {
	if v = strings.TrimSpace(v); v == "" {
		return core.DateOf(s.now().In(s.location)), nil
	}
	return core.ParseDate(v)
}

// formatAmount renders a view total with the currency symbol.
func formatAmount(v float64) string {
	return core.FormatAmount(decimal.NewFromFloat(v))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
