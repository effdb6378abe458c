// Package ledger owns the ordered, persisted collection of expenses.
//
// A Store keeps its records newest first and rewrites the whole collection
// under a single key of a storage.KV after every successful mutation. All
// mutators are serialized by one mutex.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

const (
	DefaultKey         = "expenses"
	DefaultDeleteDelay = 500 * time.Millisecond

	maxIDAttempts = 3
)

var (
	ErrClosed      = errors.New("ledger closed")
	ErrDuplicateID = errors.New("could not generate a unique expense id")
)

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key holding the serialized ledger.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for persistence and scheduling messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithClock overrides the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the expense id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithDeleteDelay sets how long ScheduleRemove waits before removing a
// record. Zero or negative removes immediately.
func WithDeleteDelay(d time.Duration) Option {
	return func(s *Store) {
		s.delay = d
	}
}

// Store is the authoritative expense ledger.
type Store struct {
	kv     storage.KV
	key    string
	logger *log.Logger
	now    func() time.Time
	newID  func() string
	delay  time.Duration

	mu       sync.Mutex
	expenses []core.Expense
	pending  map[string]*PendingRemoval
	version  uint64
	closed   bool

	lmu       sync.Mutex
	listeners []subscription
	nextSub   uint64
}

// New returns an empty Store backed by kv. Call Load to read persisted state.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultKey,
		logger:  log.Default().WithComponent(log.ComponentLedger),
		now:     time.Now,
		newID:   uuid.NewString,
		delay:   DefaultDeleteDelay,
		pending: make(map[string]*PendingRemoval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is New followed by Load.
func Open(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := New(kv, opts...)
	s.Load(ctx)
	return s
}

// Key returns the storage key the ledger is persisted under.
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory collection with the persisted one. A missing
// key, a read error or an undecodable value leaves the ledger empty; Load
// never fails.
func (s *Store) Load(ctx context.Context) {
	var expenses []core.Expense

	raw, found, err := s.kv.Get(ctx, s.key)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "Ledger read failed, starting empty",
			log.FieldKey, s.key,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeStorage)
	case !found:
		s.logger.DebugContext(ctx, "No persisted ledger found", log.FieldKey, s.key)
	default:
		var skipped int
		expenses, skipped, err = Decode(raw)
		if err != nil {
			s.logger.WarnContext(ctx, "Persisted ledger is unreadable, starting empty",
				log.FieldKey, s.key,
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeDecode)
			expenses = nil
		} else if skipped > 0 {
			s.logger.WarnContext(ctx, "Dropped invalid ledger records",
				log.FieldKey, s.key,
				"skipped", skipped)
		}
	}

	s.mu.Lock()
	s.expenses = expenses
	s.version++
	ev := Event{Kind: KindLoaded, Snapshot: s.expenses, Version: s.version, At: s.now().UTC()}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldKey, s.key,
		log.FieldCount, len(expenses),
		log.FieldOperation, log.OpLoad)
	s.emit(ev)
}

// Add validates the input, inserts a new expense at the front of the ledger
// and persists the collection. Input faults are returned as
// *core.ValidationError and leave the ledger untouched, as does a failed
// write.
func (s *Store) Add(ctx context.Context, title, amount, category string) (core.Expense, error) {
	title, amt, cat, err := core.NewExpenseInput(title, amount, category)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return core.Expense{}, ErrClosed
	}

	id, err := s.uniqueIDLocked()
	if err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:        id,
		Title:     title,
		Amount:    amt,
		Category:  cat,
		CreatedAt: s.now().UTC().Round(0),
	}

	next := make([]core.Expense, 0, len(s.expenses)+1)
	next = append(next, e)
	next = append(next, s.expenses...)
	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	s.expenses = next
	s.version++
	ev := Event{Kind: KindAdded, Record: e, Snapshot: next, Version: s.version, At: e.CreatedAt}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		log.NewFields().
			WithExpense(e.ID, e.Title, e.Amount.String(), string(e.Category)).
			WithOperation(log.OpAdd).
			ToSlice()...)
	s.emit(ev)
	return e, nil
}

// Remove deletes the expense with the given id and persists the collection.
// An unknown id is a no-op and returns nil.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	ev, changed, err := s.removeLocked(ctx, id)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if changed {
		s.emit(ev)
	}
	return nil
}

// List returns a copy of the ledger, newest first.
func (s *Store) List() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.expenses)
}

// Subscribe registers l for every subsequent change. The returned function
// removes the registration and may be called more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: l})
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool {
				return sub.id == id
			})
		})
	}
}

// Close runs every scheduled removal immediately and rejects further
// mutations. It does not close the underlying storage.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	flush := make([]*PendingRemoval, 0, len(s.pending))
	for _, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		flush = append(flush, p)
	}
	s.mu.Unlock()

	var errs []error
	for _, p := range flush {
		s.fire(p)
		<-p.Done()
		if err := p.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(flush) > 0 {
		s.logger.Info("Flushed scheduled removals on close", log.FieldCount, len(flush))
	}
	return errors.Join(errs...)
}

func (s *Store) removeLocked(ctx context.Context, id string) (Event, bool, error) {
	idx := slices.IndexFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
	if idx < 0 {
		s.logger.DebugContext(ctx, "Remove of unknown expense ignored", log.FieldExpenseID, id)
		return Event{}, false, nil
	}

	removed := s.expenses[idx]
	next := make([]core.Expense, 0, len(s.expenses)-1)
	next = append(next, s.expenses[:idx]...)
	next = append(next, s.expenses[idx+1:]...)
	if err := s.persistLocked(ctx, next); err != nil {
		return Event{}, false, fmt.Errorf("remove expense %s: %w", id, err)
	}
	s.expenses = next
	s.version++

	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldExpenseID, id,
		log.FieldOperation, log.OpRemove,
		log.FieldCount, len(next))
	return Event{Kind: KindRemoved, Record: removed, Snapshot: next, Version: s.version, At: s.now().UTC()}, true, nil
}

func (s *Store) persistLocked(ctx context.Context, expenses []core.Expense) error {
	data, err := Encode(expenses)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Ledger write failed",
			log.FieldKey, s.key,
			log.FieldOperation, log.OpPersist,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeStorage)
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func (s *Store) uniqueIDLocked() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id == "" {
			continue
		}
		if !slices.ContainsFunc(s.expenses, func(e core.Expense) bool { return e.ID == id }) {
			return id, nil
		}
	}
	return "", ErrDuplicateID
}

func (s *Store) emit(ev Event) {
	s.lmu.Lock()
	subs := slices.Clone(s.listeners)
	s.lmu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
