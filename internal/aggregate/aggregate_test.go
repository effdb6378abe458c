package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

func exp(id, title, amount string, cat core.Category) core.Expense {
	return core.Expense{
		ID:        id,
		Title:     title,
		Amount:    decimal.RequireFromString(amount),
		Category:  cat,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// ledger order is newest first: Bus was added after Coffee.
func sample() []core.Expense {
	return []core.Expense{
		exp("2", "Bus", "40.50", core.Transport),
		exp("1", "Coffee", "150.00", core.Food),
	}
}

func TestTotalAndCount(t *testing.T) {
	records := sample()
	if got := Total(records); !got.Equal(decimal.RequireFromString("190.50")) {
		t.Fatalf("Total = %s, want 190.50", got)
	}
	if got := Count(records); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	if got := Total(nil); !got.IsZero() {
		t.Fatalf("Total(nil) = %s, want 0", got)
	}
	if got := Count(nil); got != 0 {
		t.Fatalf("Count(nil) = %d, want 0", got)
	}
}

func TestTotalKeepsPrecision(t *testing.T) {
	records := []core.Expense{
		exp("1", "a", "0.1", core.Food),
		exp("2", "b", "0.2", core.Food),
	}
	if got := Total(records); !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("Total = %s, want exactly 0.3", got)
	}
}

func TestByCategory(t *testing.T) {
	records := append(sample(),
		exp("3", "Movie", "300", core.Entertainment),
		exp("4", "Lunch", "99.5", core.Food),
		exp("5", "Gift", "10", core.Category("Gifts")),
	)

	got := ByCategory(records)
	want := []struct {
		cat core.Category
		amt string
	}{
		{core.Entertainment, "300"},
		{core.Food, "249.5"},
		{core.Category("Gifts"), "10"},
		{core.Transport, "40.5"},
	}
	if len(got) != len(want) {
		t.Fatalf("ByCategory len = %d, want %d (%v)", len(got), len(want), got)
	}
	sum := decimal.Zero
	for i, w := range want {
		if got[i].Category != w.cat || !got[i].Amount.Equal(decimal.RequireFromString(w.amt)) {
			t.Fatalf("entry %d = %s %s, want %s %s", i, got[i].Category, got[i].Amount, w.cat, w.amt)
		}
		if got[i].Amount.IsZero() {
			t.Fatalf("entry %d has zero subtotal", i)
		}
		sum = sum.Add(got[i].Amount)
	}
	if !sum.Equal(Total(records)) {
		t.Fatalf("subtotals sum %s != total %s", sum, Total(records))
	}

	if got := ByCategory(nil); len(got) != 0 {
		t.Fatalf("ByCategory(nil) = %v, want empty", got)
	}
}

func TestByCategoryScenario(t *testing.T) {
	got := ByCategory(sample())
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}
	if got[0].Category != core.Food || !got[0].Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected first entry %v", got[0])
	}
	if got[1].Category != core.Transport || !got[1].Amount.Equal(decimal.RequireFromString("40.50")) {
		t.Fatalf("unexpected second entry %v", got[1])
	}
}

func TestFilterByCategory(t *testing.T) {
	records := sample()

	all := FilterByCategory(records, All)
	if len(all) != 2 || all[0].ID != "2" || all[1].ID != "1" {
		t.Fatalf("All filter changed records: %v", all)
	}

	food := FilterByCategory(records, "Food")
	if len(food) != 1 || food[0].Title != "Coffee" {
		t.Fatalf("Food filter = %v, want [Coffee]", food)
	}

	if got := FilterByCategory(records, "food"); len(got) != 0 {
		t.Fatalf("selector must match exactly, got %v", got)
	}
	if got := FilterByCategory(records, "all"); len(got) != 0 {
		t.Fatalf("only the All selector is special, got %v", got)
	}
	if got := FilterByCategory(records, "Bills"); len(got) != 0 {
		t.Fatalf("Bills filter = %v, want empty", got)
	}
}

func TestFilterMatchesUnknownCategoryVerbatim(t *testing.T) {
	records := []core.Expense{
		exp("2", "Veg", "120", core.Category("groceries")),
		exp("1", "Bread", "40", core.Category("Groceries")),
	}
	got := FilterByCategory(records, "groceries")
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("groceries filter = %v, want [2]", got)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	records := []core.Expense{
		exp("3", "c", "1", core.Food),
		exp("2", "b", "1", core.Bills),
		exp("1", "a", "1", core.Food),
	}
	got := FilterByCategory(records, "Food")
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "1" {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())
	if s.Count != 2 || !s.Total.Equal(decimal.RequireFromString("190.5")) || len(s.ByCategory) != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
