package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event ProductEvent) error
	Close() error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ProductEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaProducer builds an async writer: Publish returns once the message
// is queued and delivery failures surface through the completion callback.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	logger = logger.Named("kafka")

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver events",
					zap.Int("count", len(messages)),
					zap.Error(err))
			}
		},
	}

	return newKafkaProducer(writer, logger)
}

func newKafkaProducer(writer messageWriter, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{writer: writer, logger: logger}
}

func (p *KafkaProducer) Publish(ctx context.Context, event ProductEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	p.logger.Debug("Event published",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("product_id", event.ProductID))

	return nil
}

// Close flushes pending messages.
func (p *KafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
