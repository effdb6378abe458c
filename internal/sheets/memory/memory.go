package memory

import (
	"context"
	"sync"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/sheets"
)

var _ sheets.LedgerMirror = (*Store)(nil)

// Store is an in-process mirror target that keeps the last rendered rows.
type Store struct {
	mu      sync.Mutex
	loc     *time.Location
	rows    [][]any
	mirrors int
}

func New(loc *time.Location) *Store {
	return &Store{loc: loc}
}

// Mirror renders the snapshot and replaces the stored rows.
func (s *Store) Mirror(_ context.Context, expenses []core.Expense) error {
	rows := sheets.Rows(expenses, s.loc)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.mirrors++
	return nil
}

// Rows returns a copy of the last mirrored rows, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Mirrors returns how many times Mirror has been called.
func (s *Store) Mirrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirrors
}
