package events

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/ledger"
	"kharcha/internal/log"
)

const (
	defaultQueueSize      = 64
	defaultPublishTimeout = 5 * time.Second
)

// Publisher delivers a message to one downstream system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, msg Message) error

func (f PublisherFunc) Publish(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Notifier turns ledger events into messages and hands them to every
// publisher on a background goroutine. Failures are logged and never reach
// the ledger.
type Notifier struct {
	publishers []Publisher
	logger     *log.Logger
	timeout    time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	done   chan struct{}
}

// NewNotifier starts the delivery goroutine. Call Close to drain and stop it.
func NewNotifier(logger *log.Logger, publishers ...Publisher) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	n := &Notifier{
		publishers: publishers,
		logger:     logger.WithComponent(log.ComponentEvents),
		timeout:    defaultPublishTimeout,
		queue:      make(chan Message, defaultQueueSize),
		done:       make(chan struct{}),
	}
	go n.run()
	return n
}

// HandleEvent is a ledger.Listener. It never blocks: when the queue is full
// the message is dropped with a warning.
func (n *Notifier) HandleEvent(ev ledger.Event) {
	msg := FromEvent(ev)

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- msg:
	default:
		n.logger.Warn("Event queue full, dropping message",
			"type", string(msg.Type),
			log.FieldExpenseID, msg.ID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
	return nil
}

func (n *Notifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		_ = n.Dispatch(context.Background(), msg)
	}
}

// Dispatch publishes msg to every publisher concurrently and returns the
// first error. A failing publisher does not cancel the others.
func (n *Notifier) Dispatch(ctx context.Context, msg Message) error {
	var g errgroup.Group
	for _, p := range n.publishers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			if err := p.Publish(pctx, msg); err != nil {
				n.logger.ErrorContext(ctx, "Failed to publish ledger event",
					"type", string(msg.Type),
					log.FieldExpenseID, msg.ID,
					log.FieldOperation, log.OpPublish,
					log.FieldError, err.Error(),
					log.FieldErrorType, log.ErrorTypeNetwork)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
