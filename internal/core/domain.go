package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Bills         Category = "Bills"
	Other         Category = "Other"
)

type (
	// Category classifies an expense. The six constants above form the closed
	// set of known categories; any other value is carried through unchanged.
	Category string

	Expense struct {
		ID        string
		Title     string
		Amount    decimal.Decimal
		Category  Category
		CreatedAt time.Time
	}
)

// Field names reported by ValidationError.
const (
	FieldTitle    = "title"
	FieldCategory = "category"
	FieldAmount   = "amount"
)

var (
	ErrTitleMissing    = errors.New("title is required")
	ErrCategoryMissing = errors.New("category is required")
	ErrAmountInvalid   = errors.New("amount must be a positive number")
)

// ValidationError identifies the input field that was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{Food, Transport, Entertainment, Shopping, Bills, Other}
}

var folder = cases.Fold()

// ParseCategory trims s and maps case-insensitive matches of a known category
// to its canonical spelling. Unknown values are returned trimmed but otherwise
// untouched.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	folded := folder.String(s)
	for _, c := range Categories() {
		if folder.String(string(c)) == folded {
			return c
		}
	}
	return Category(s)
}

// Known reports whether c is one of the six fixed categories.
func (c Category) Known() bool {
	switch c {
	case Food, Transport, Entertainment, Shopping, Bills, Other:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// NewExpenseInput validates raw user input and returns the normalized title,
// amount and category. Fields are checked in the order title, category,
// amount; the first failure is returned as a *ValidationError.
func NewExpenseInput(title, amount, category string) (string, decimal.Decimal, Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", decimal.Zero, "", &ValidationError{Field: FieldTitle, Err: ErrTitleMissing}
	}
	cat := ParseCategory(category)
	if cat == "" {
		return "", decimal.Zero, "", &ValidationError{Field: FieldCategory, Err: ErrCategoryMissing}
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return "", decimal.Zero, "", &ValidationError{Field: FieldAmount, Err: err}
	}
	return title, amt, cat, nil
}

// Validate checks the invariants every stored expense must satisfy.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("expense id is empty")
	}
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: FieldTitle, Err: ErrTitleMissing}
	}
	if e.Category == "" {
		return &ValidationError{Field: FieldCategory, Err: ErrCategoryMissing}
	}
	if err := CheckAmount(e.Amount); err != nil {
		return &ValidationError{Field: FieldAmount, Err: err}
	}
	if e.CreatedAt.IsZero() {
		return errors.New("expense date is zero")
	}
	return nil
}
