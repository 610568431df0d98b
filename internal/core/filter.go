package core

import (
	"errors"
	"fmt"
	"strings"
)

// TimeFilter selects which transactions take part in an aggregation.
type TimeFilter int

const (
	Today TimeFilter = iota
	ThisMonth
	AllTime
)

var ErrUnknownFilter = errors.New("unknown time filter")

// ParseTimeFilter maps the external selector values today, month and all.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return Today, nil
	case "month":
		return ThisMonth, nil
	case "all":
		return AllTime, nil
	}
	return Today, fmt.Errorf("%w: %q (must be one of today, month, all)", ErrUnknownFilter, s)
}

// String returns the external selector value.
func (f TimeFilter) String() string {
	switch f {
	case Today:
		return "today"
	case ThisMonth:
		return "month"
	case AllTime:
		return "all"
	}
	return fmt.Sprintf("TimeFilter(%d)", int(f))
}

// Includes reports whether a transaction dated d is kept when the current date is today.
func (f TimeFilter) Includes(d, today Date) bool {
	switch f {
	case Today:
		return d == today
	case ThisMonth:
		return d.SameMonth(today)
	case AllTime:
		return true
	}
	return false
}
