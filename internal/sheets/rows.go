package sheets

import (
	"time"

	"kharcha/internal/core"
	"kharcha/internal/format"
)

// Header is the first row written to a mirrored sheet.
var Header = []any{"Date", "Title", "Category", "Amount", "ID"}

// Rows renders a ledger snapshot as sheet rows, header first. Dates are
// shown in loc; amounts are plain two-digit decimals so the sheet can sum
// them.
func Rows(expenses []core.Expense, loc *time.Location) [][]any {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, Header)
	for _, e := range expenses {
		rows = append(rows, []any{
			format.FormatTimestamp(e.CreatedAt.In(loc)),
			e.Title,
			string(e.Category),
			e.Amount.StringFixed(2),
			e.ID,
		})
	}
	return rows
}
