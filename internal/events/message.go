// Package events carries ledger changes to external consumers.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/aggregate"
	"kharcha/internal/ledger"
)

// Type identifies the kind of change a Message describes.
type Type string

const (
	TypeExpenseAdded   Type = "expense.added"
	TypeExpenseRemoved Type = "expense.removed"
	TypeLedgerLoaded   Type = "ledger.loaded"
)

// Message is the broker payload for one ledger change. Count and Total
// describe the ledger after the change.
type Message struct {
	Type       Type            `json:"type"`
	ID         string          `json:"id,omitempty"`
	Title      string          `json:"title,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category,omitempty"`
	Date       *time.Time      `json:"date,omitempty"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Version    uint64          `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// FromEvent builds the broker message for a ledger event.
func FromEvent(ev ledger.Event) Message {
	msg := Message{
		Count:      aggregate.Count(ev.Snapshot),
		Total:      aggregate.Total(ev.Snapshot),
		Version:    ev.Version,
		OccurredAt: ev.At.UTC(),
	}
	switch ev.Kind {
	case ledger.KindAdded:
		msg.Type = TypeExpenseAdded
	case ledger.KindRemoved:
		msg.Type = TypeExpenseRemoved
	default:
		msg.Type = TypeLedgerLoaded
		return msg
	}

	date := ev.Record.CreatedAt.UTC()
	msg.ID = ev.Record.ID
	msg.Title = ev.Record.Title
	msg.Amount = ev.Record.Amount
	msg.Category = string(ev.Record.Category)
	msg.Date = &date
	return msg
}

// Key returns the partitioning key for the message.
func (m Message) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return string(m.Type)
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON creates a message from JSON bytes
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
