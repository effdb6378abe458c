package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"kharcha/internal/events"
	"kharcha/internal/log"
)

const DefaultTopic = "kharcha.ledger"

var _ events.Publisher = (*Publisher)(nil)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger change messages to a Kafka topic, keyed by expense
// id so changes to one expense stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *log.Logger
}

func NewPublisher(brokers []string, topic string, logger *log.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger.WithComponent(log.ComponentKafka),
	}
}

func (p *Publisher) Publish(ctx context.Context, msg events.Message) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key()),
		Value: data,
		Time:  msg.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write to topic %s: %w", p.topic, err)
	}

	p.logger.DebugContext(ctx, "Published ledger change",
		"type", string(msg.Type),
		"topic", p.topic,
		log.FieldExpenseID, msg.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
