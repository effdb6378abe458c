package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in    string
		out   Category
		known bool
	}{
		{"Food", Food, true},
		{"food", Food, true},
		{"  TRANSPORT ", Transport, true},
		{"bills", Bills, true},
		{"Other", Other, true},
		{"Travel", Category("Travel"), false},
		{"  Gifts ", Category("Gifts"), false},
		{"", Category(""), false},
	}
	for _, tc := range cases {
		got := ParseCategory(tc.in)
		if got != tc.out {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.out)
		}
		if got.Known() != tc.known {
			t.Fatalf("%q Known() = %v, want %v", got, got.Known(), tc.known)
		}
	}
}

func TestCategoriesAreKnown(t *testing.T) {
	cats := Categories()
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if !c.Known() {
			t.Fatalf("%q should be known", c)
		}
	}
}

func TestNewExpenseInput(t *testing.T) {
	title, amt, cat, err := NewExpenseInput("  Coffee ", "150.00", "food")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if title != "Coffee" || cat != Food || !amt.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected normalized input: %q %s %q", title, amt, cat)
	}

	bads := []struct {
		title, amount, category string
		field                   string
		sentinel                error
	}{
		{"", "10", "Food", FieldTitle, ErrTitleMissing},
		{"   ", "10", "Food", FieldTitle, ErrTitleMissing},
		{"Tea", "10", "", FieldCategory, ErrCategoryMissing},
		{"Tea", "10", "  ", FieldCategory, ErrCategoryMissing},
		{"Tea", "abc", "Food", FieldAmount, ErrAmountInvalid},
		{"Tea", "0", "Food", FieldAmount, ErrAmountInvalid},
		{"Tea", "-5", "Food", FieldAmount, ErrAmountInvalid},
		{"", "", "", FieldTitle, ErrTitleMissing}, // title reported first
	}
	for i, tc := range bads {
		_, _, _, err := NewExpenseInput(tc.title, tc.amount, tc.category)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected *ValidationError, got %v", i, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("case %d expected field %q, got %q", i, tc.field, verr.Field)
		}
		if !errors.Is(err, tc.sentinel) {
			t.Fatalf("case %d expected %v, got %v", i, tc.sentinel, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:        "a",
		Title:     "ok",
		Amount:    decimal.NewFromInt(1),
		Category:  Food,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Title: "a", Amount: decimal.NewFromInt(1), Category: Food, CreatedAt: good.CreatedAt},
		{ID: "a", Title: "", Amount: decimal.NewFromInt(1), Category: Food, CreatedAt: good.CreatedAt},
		{ID: "a", Title: "a", Amount: decimal.Zero, Category: Food, CreatedAt: good.CreatedAt},
		{ID: "a", Title: "a", Amount: decimal.NewFromInt(1), Category: "", CreatedAt: good.CreatedAt},
		{ID: "a", Title: "a", Amount: decimal.NewFromInt(1), Category: Food},
		{ID: "a", Title: "a", Amount: decimal.New(1, 400), Category: Food, CreatedAt: good.CreatedAt},
		{ID: "a", Title: "a", Amount: decimal.New(1, -999999999), Category: Food, CreatedAt: good.CreatedAt},
		{ID: "a", Title: "a", Amount: MaxAmount.Add(decimal.NewFromInt(1)), Category: Food, CreatedAt: good.CreatedAt},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
