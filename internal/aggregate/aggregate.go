// Package aggregate derives totals and category breakdowns from a ledger
// snapshot. Every function is pure: inputs are never modified and nothing is
// cached between calls.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// All is the filter selector that matches every record.
const All = "All"

// Total returns the sum of all amounts, zero for an empty snapshot.
func Total(records []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Count returns the number of records.
func Count(records []core.Expense) int {
	return len(records)
}

// ByCategory groups amounts by category. Only categories with at least one
// record appear, ordered lexicographically by name.
func ByCategory(records []core.Expense) []core.CategoryAmount {
	sums := make(map[core.Category]decimal.Decimal)
	for _, r := range records {
		if cur, ok := sums[r.Category]; ok {
			sums[r.Category] = cur.Add(r.Amount)
		} else {
			sums[r.Category] = r.Amount
		}
	}

	out := make([]core.CategoryAmount, 0, len(sums))
	for cat, amt := range sums {
		out = append(out, core.CategoryAmount{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// FilterByCategory returns the records whose category equals selector,
// preserving ledger order. The All selector returns records unchanged.
// Matching is exact; callers normalize user input first.
func FilterByCategory(records []core.Expense, selector string) []core.Expense {
	if selector == All {
		return records
	}
	want := core.Category(selector)
	out := make([]core.Expense, 0, len(records))
	for _, r := range records {
		if r.Category == want {
			out = append(out, r)
		}
	}
	return out
}

// Summarize bundles Total, Count and ByCategory for a view.
func Summarize(records []core.Expense) core.Summary {
	return core.Summary{
		Total:      Total(records),
		Count:      Count(records),
		ByCategory: ByCategory(records),
	}
}
