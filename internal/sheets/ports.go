package sheets

import (
	"context"

	"kharcha/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror replaces the contents of an external sheet with the
	// given ledger snapshot, newest first.
	LedgerMirror interface {
		Mirror(ctx context.Context, expenses []core.Expense) error
	}
)
