package core

import "errors"

// Category is one label of the closed category set.
type Category string

const (
	Food          Category = "Food"
	Traveling     Category = "Traveling"
	Subscriptions Category = "Subscriptions"
	Shopping      Category = "Shopping"
	RentBills     Category = "Rent/Bills"
	PersonalCare  Category = "Personal Care"
	Entertainment Category = "Entertainment"
	Miscellaneous Category = "Miscellaneous"

	// FallbackCategory receives every label outside the closed set.
	FallbackCategory = Miscellaneous
)

var ErrUnknownCategory = errors.New("unknown category")

// CategoryStyle is the display configuration of a category.
type CategoryStyle struct {
	Order int
	Color string
}

var categoryOrder = [...]Category{
	Food, Traveling, Subscriptions, Shopping,
	RentBills, PersonalCare, Entertainment, Miscellaneous,
}

var categoryStyles = map[Category]CategoryStyle{
	Food:          {Order: 0, Color: "#4caf50"},
	Traveling:     {Order: 1, Color: "#2196f3"},
	Subscriptions: {Order: 2, Color: "#ff9800"},
	Shopping:      {Order: 3, Color: "#e91e63"},
	RentBills:     {Order: 4, Color: "#9c27b0"},
	PersonalCare:  {Order: 5, Color: "#00bcd4"},
	Entertainment: {Order: 6, Color: "#cddc39"},
	Miscellaneous: {Order: 7, Color: "#9e9e9e"},
}

// Categories returns the closed set in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder[:])
	return out
}

// LookupCategory matches label exactly (case-sensitive, no trimming).
func LookupCategory(label string) (Category, bool) {
	c := Category(label)
	if _, ok := categoryStyles[c]; !ok {
		return "", false
	}
	return c, true
}

func (c Category) Valid() bool {
	_, ok := categoryStyles[c]
	return ok
}

// Style returns order and color; ok is false outside the closed set.
func (c Category) Style() (CategoryStyle, bool) {
	s, ok := categoryStyles[c]
	return s, ok
}

func (c Category) Color() string {
	return categoryStyles[c].Color
}

func (c Category) String() string {
	return string(c)
}
