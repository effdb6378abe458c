package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"kharcha/internal/log"
)

// ErrCanceled is reported by a PendingRemoval that was canceled before it ran.
var ErrCanceled = errors.New("removal canceled")

// PendingRemoval is the handle of a delayed delete.
type PendingRemoval struct {
	id    string
	store *Store
	timer *time.Timer

	once sync.Once
	done chan struct{}
	err  error
}

func newPendingRemoval(s *Store, id string) *PendingRemoval {
	return &PendingRemoval{id: id, store: s, done: make(chan struct{})}
}

// ID returns the expense id the removal targets.
func (p *PendingRemoval) ID() string {
	return p.id
}

// Done is closed once the removal has run or was canceled.
func (p *PendingRemoval) Done() <-chan struct{} {
	return p.done
}

// Err reports the outcome after Done is closed: nil on success (including
// an id that was already gone), ErrCanceled, ErrClosed or a persistence
// error. Before Done it returns nil.
func (p *PendingRemoval) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Cancel stops a removal that has not run yet. It reports whether the
// removal was prevented.
func (p *PendingRemoval) Cancel() bool {
	s := p.store
	s.mu.Lock()
	if s.pending[p.id] != p {
		s.mu.Unlock()
		return false
	}
	delete(s.pending, p.id)
	if p.timer != nil {
		p.timer.Stop()
	}
	s.mu.Unlock()

	s.logger.Debug("Scheduled removal canceled", log.FieldExpenseID, p.id)
	p.finish(ErrCanceled)
	return true
}

func (p *PendingRemoval) finish(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// ScheduleRemove removes the expense with the given id after the configured
// delete delay. The record stays visible in List until then. Asking again
// for an id that is already scheduled returns the existing handle without
// restarting the delay.
func (s *Store) ScheduleRemove(id string) *PendingRemoval {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return p
	}
	p := newPendingRemoval(s, id)
	if s.closed {
		s.mu.Unlock()
		p.finish(ErrClosed)
		return p
	}
	s.pending[id] = p
	if s.delay > 0 {
		p.timer = time.AfterFunc(s.delay, func() { s.fire(p) })
		s.mu.Unlock()
		s.logger.Debug("Removal scheduled",
			log.FieldExpenseID, id,
			log.FieldOperation, log.OpSchedule,
			"delay", s.delay.String())
		return p
	}
	s.mu.Unlock()

	s.fire(p)
	return p
}

// Pending reports whether a removal for id is scheduled and has not run.
func (s *Store) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Store) fire(p *PendingRemoval) {
	s.mu.Lock()
	if s.pending[p.id] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, p.id)
	ev, changed, err := s.removeLocked(context.Background(), p.id)
	s.mu.Unlock()

	if changed {
		s.emit(ev)
	}
	p.finish(err)
}
