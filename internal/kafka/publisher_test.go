package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/events"
	"kharcha/internal/log"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, DefaultTopic, log.Discard())

	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	msg := events.Message{
		Type:       events.TypeExpenseAdded,
		ID:         "exp-1",
		Title:      "Coffee",
		Amount:     decimal.RequireFromString("150"),
		OccurredAt: at,
	}
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, w.msgs, 1)
	got := w.msgs[0]
	assert.Equal(t, "exp-1", string(got.Key))
	assert.Equal(t, at, got.Time)
	assert.Equal(t, "type", got.Headers[0].Key)
	assert.Equal(t, "expense.added", string(got.Headers[0].Value))

	decoded, err := events.MessageFromJSON(got.Value)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", decoded.Title)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newPublisher(&fakeWriter{err: boom}, "t", log.Discard())

	err := p.Publish(context.Background(), events.Message{Type: events.TypeLedgerLoaded})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "topic t")
}
