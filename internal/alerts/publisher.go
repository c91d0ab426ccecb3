// Package alerts moves high-priority notifications (fraud and urgency
// alerts) through a Kafka outbox to an out-of-band delivery channel, so
// campus security hears about them even when nobody is watching the
// dashboard.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/campusfind/campusfind/pkg/models"
)

const (
	// OutboxTopic is where the server publishes alerts to be delivered.
	OutboxTopic = "alerts-outbox"

	// DLQTopic receives alerts that exhaust all delivery retries, so they
	// can be inspected and replayed without blocking the main consumer.
	DLQTopic = "alerts-dlq"
)

// Publisher writes notifications to the alerts outbox. Publishing is
// best-effort from the caller's point of view: the item lifecycle never
// blocks on Kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        OutboxTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Publish writes one notification to the outbox.
func (p *Publisher) Publish(ctx context.Context, n *models.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.ID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}

// Close releases the Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
