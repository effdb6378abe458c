package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// FormatVersion tags the persisted document layout.
const FormatVersion = 1

var (
	ErrEmptyDocument      = errors.New("empty ledger document")
	ErrUnsupportedVersion = errors.New("unsupported ledger document version")
)

type document struct {
	Version  int      `json:"version"`
	Expenses []record `json:"expenses"`
}

// record is the persisted shape of one expense. Amounts are written as
// decimal strings; numeric amounts from older blobs decode too.
type record struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
}

// Encode serializes expenses in ledger order into a versioned document.
func Encode(expenses []core.Expense) ([]byte, error) {
	doc := document{
		Version:  FormatVersion,
		Expenses: make([]record, 0, len(expenses)),
	}
	for _, e := range expenses {
		doc.Expenses = append(doc.Expenses, record{
			ID:       e.ID,
			Title:    e.Title,
			Amount:   e.Amount,
			Category: string(e.Category),
			Date:     e.CreatedAt.UTC(),
		})
	}
	return json.Marshal(doc)
}

// Decode parses a persisted ledger. It accepts the versioned document written
// by Encode and the bare array of records used before versioning. Records
// that fail validation or repeat an earlier id are dropped and counted in
// skipped.
func Decode(data []byte) (expenses []core.Expense, skipped int, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, ErrEmptyDocument
	}

	var recs []record
	if data[0] == '[' {
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, 0, fmt.Errorf("decode legacy ledger: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, 0, fmt.Errorf("decode ledger: %w", err)
		}
		if doc.Version != FormatVersion {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
		}
		recs = doc.Expenses
	}

	seen := make(map[string]struct{}, len(recs))
	expenses = make([]core.Expense, 0, len(recs))
	for _, r := range recs {
		e := core.Expense{
			ID:        r.ID,
			Title:     r.Title,
			Amount:    r.Amount,
			Category:  core.Category(r.Category),
			CreatedAt: r.Date.UTC().Round(0),
		}
		if _, dup := seen[e.ID]; dup || e.Validate() != nil {
			skipped++
			continue
		}
		seen[e.ID] = struct{}{}
		expenses = append(expenses, e)
	}
	return expenses, skipped, nil
}

// ReadSnapshot decodes the ledger persisted under key. Unlike Store.Load it
// reports read and decode failures. A missing key yields an empty ledger.
func ReadSnapshot(ctx context.Context, kv storage.KV, key string) ([]core.Expense, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read ledger %q: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	expenses, _, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return expenses, nil
}
