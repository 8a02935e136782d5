package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategoryHealthcare    Category = "Healthcare"
	CategoryShopping      Category = "Shopping"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

// DescriptionMaxLen bounds free-text descriptions.
const DescriptionMaxLen = 200

type (
	// Category is one of the fixed spending categories. The set is closed:
	// both creation and edits validate against it, with CategoryOther as
	// the catch-all for anything that does not fit a named bucket.
	Category string

	// Date is a calendar date (no time of day, no timezone). It renders
	// and parses as ISO 8601 (YYYY-MM-DD), so lexical order of the string
	// form matches chronological order.
	Date struct {
		time.Time
	}

	// Expense is a single recorded spending event. ID and CreatedAt are
	// assigned by the ledger; the remaining fields come from the user.
	Expense struct {
		ID          int64
		Amount      Money
		Category    Category
		Date        Date
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrDescriptionTooLong = errors.New("description too long")
)

// categories holds the closed set in canonical display order.
var categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryShopping,
	CategoryEducation,
	CategoryOther,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory resolves user input to a category. It accepts the exact
// name, a case-insensitive name, or a 1-based index into Categories().
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrUnknownCategory
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(categories) {
			return "", fmt.Errorf("%w: choice %d out of range", ErrUnknownCategory, n)
		}
		return categories[n-1], nil
	}
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) Validate() error {
	for _, known := range categories {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO 8601 date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days; n may be negative.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is zero", ErrInvalidDate)
	}
	return nil
}

// Validate checks every user-settable field. ID and CreatedAt belong to
// the ledger and are not checked here.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > DescriptionMaxLen {
		return fmt.Errorf("%w (max %d characters)", ErrDescriptionTooLong, DescriptionMaxLen)
	}
	return nil
}
