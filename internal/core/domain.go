package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date kept exactly as written in the source record.
	// It is not validated against the calendar, so 2024-02-31 is a legal value.
	Date struct {
		Year  int
		Month int
		Day   int
	}

	// RawMatch is one grammar match before normalization.
	RawMatch struct {
		RawDate     string
		RawCategory string
		Description string
		RawAmount   string
	}

	// Transaction is the canonical record produced by normalization.
	Transaction struct {
		Date        Date
		Category    Category
		Description string
		Amount      decimal.Decimal
	}

	// Document is one text blob handed over by a document source.
	Document struct {
		Name string
		Text string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// ParseDate parses the canonical YYYY-MM-DD form. Like normalization it only
// checks the shape, not calendar validity.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if strings.TrimLeft(p, "0123456789") != "" {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i], _ = strconv.Atoi(p)
	}
	return NewDate(nums[0], nums[1], nums[2]), nil
}

// String renders the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare orders dates by year, then month, then day.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// SameMonth reports whether both dates share the YYYY-MM prefix.
func (d Date) SameMonth(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month
}

// IsZero returns true for the zero Date
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Raw renders the transaction back into record grammar shape.
func (t Transaction) Raw() RawMatch {
	return RawMatch{
		RawDate:     fmt.Sprintf("%02d-%02d-%04d", t.Date.Day, t.Date.Month, t.Date.Year),
		RawCategory: string(t.Category),
		Description: t.Description,
		RawAmount:   t.Amount.String(),
	}
}

// Line renders the transaction as a single record line.
func (t Transaction) Line() string {
	r := t.Raw()
	return strings.Join([]string{r.RawDate, r.RawCategory, r.Description, r.RawAmount}, " | ")
}

// Equal compares amounts numerically, so 250.50 equals 250.5.
func (t Transaction) Equal(o Transaction) bool {
	return t.Date == o.Date &&
		t.Category == o.Category &&
		t.Description == o.Description &&
		t.Amount.Equal(o.Amount)
}

func (t Transaction) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, t.Category)
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
