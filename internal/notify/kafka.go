package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// kafkaPublisher publishes notification events to a Kafka topic.
type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher. Events are keyed by
// order id so per-order ordering is preserved within a partition.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Compression:  kafka.Snappy,
	}

	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "notify-kafka").Logger(),
	}
}

// Publish sends one event to the topic.
func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode notification event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("kind", event.Kind).
			Str("order_number", event.OrderNumber).
			Msg("failed to publish notification")
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	p.logger.Debug().
		Str("kind", event.Kind).
		Str("order_number", event.OrderNumber).
		Msg("notification published")

	return nil
}

// Close flushes and closes the writer.
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
