package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/aggregate"
	"kharcha/internal/core"
	"kharcha/internal/format"
)

// formValues echoes the add form back after a rejected submission.
type formValues struct {
	Title    string
	Amount   string
	Category string
}

type expenseRow struct {
	core.Expense
	Pending bool
}

// pageData feeds index.html. Totals and the category summary cover the whole
// ledger; only the list honours the filter.
type pageData struct {
	Filter     string
	Filters    []string
	Categories []core.Category
	Expenses   []expenseRow
	Count      int
	Total      decimal.Decimal
	ByCategory []core.CategoryAmount
	Error      string
	Form       formValues
}

// normalizeFilter maps a query selector onto All or a canonical category.
func normalizeFilter(selector string) string {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, aggregate.All) {
		return aggregate.All
	}
	return string(core.ParseCategory(selector))
}

func filterOptions() []string {
	opts := []string{aggregate.All}
	for _, c := range core.Categories() {
		opts = append(opts, string(c))
	}
	return opts
}

func (s *Server) buildPage(filter string) pageData {
	records := s.ledger.List()
	summary := aggregate.Summarize(records)

	visible := aggregate.FilterByCategory(records, filter)
	rows := make([]expenseRow, len(visible))
	for i, e := range visible {
		rows[i] = expenseRow{Expense: e, Pending: s.ledger.Pending(e.ID)}
	}

	return pageData{
		Filter:     filter,
		Filters:    filterOptions(),
		Categories: core.Categories(),
		Expenses:   rows,
		Count:      summary.Count,
		Total:      summary.Total,
		ByCategory: summary.ByCategory,
		Form:       formValues{Category: string(core.Food)},
	}
}

type apiExpense struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Display     string          `json:"amount_display"`
	Category    string          `json:"category"`
	Glyph       string          `json:"glyph"`
	Date        time.Time       `json:"date"`
	DateDisplay string          `json:"date_display"`
	Pending     bool            `json:"pending,omitempty"`
}

type apiCategory struct {
	Category string          `json:"category"`
	Glyph    string          `json:"glyph"`
	Amount   decimal.Decimal `json:"amount"`
	Display  string          `json:"amount_display"`
}

type apiLedger struct {
	Filter     string          `json:"filter"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Display    string          `json:"total_display"`
	ByCategory []apiCategory   `json:"by_category"`
	Expenses   []apiExpense    `json:"expenses"`
}

func (s *Server) buildAPI(filter string) apiLedger {
	page := s.buildPage(filter)

	out := apiLedger{
		Filter:     page.Filter,
		Count:      page.Count,
		Total:      page.Total,
		Display:    format.FormatRupees(page.Total),
		ByCategory: make([]apiCategory, len(page.ByCategory)),
		Expenses:   make([]apiExpense, len(page.Expenses)),
	}
	for i, c := range page.ByCategory {
		out.ByCategory[i] = apiCategory{
			Category: string(c.Category),
			Glyph:    format.CategoryGlyph(c.Category),
			Amount:   c.Amount,
			Display:  format.FormatRupees(c.Amount),
		}
	}
	for i, row := range page.Expenses {
		out.Expenses[i] = apiExpense{
			ID:          row.ID,
			Title:       row.Title,
			Amount:      row.Amount,
			Display:     format.FormatRupees(row.Amount),
			Category:    string(row.Category),
			Glyph:       format.CategoryGlyph(row.Category),
			Date:        row.CreatedAt.UTC(),
			DateDisplay: format.FormatTimestamp(row.CreatedAt.In(s.loc)),
			Pending:     row.Pending,
		}
	}
	return out
}
