package ledger

import (
	"time"

	"kharcha/internal/core"
)

// Kind names the mutation that produced an Event.
type Kind string

const (
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
	KindLoaded  Kind = "loaded"
)

// Event describes one change to the ledger. Snapshot is the full collection
// after the change, newest first, and must not be modified. Version grows by
// one with every change so consumers can drop stale events.
type Event struct {
	Kind     Kind
	Record   core.Expense
	Snapshot []core.Expense
	Version  uint64
	At       time.Time
}

// Listener receives ledger events on the goroutine that made the change,
// after the store lock has been released.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}
