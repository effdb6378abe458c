package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// Summary is the derived view of a ledger snapshot.
type Summary struct {
	Total      decimal.Decimal
	Count      int
	ByCategory []CategoryAmount
}
