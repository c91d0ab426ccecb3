package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/campusfind/campusfind/pkg/models"
)

// maxRetries is the number of delivery attempts before an alert is
// routed to the DLQ. Each attempt adds a short backoff.
const maxRetries = 3

// Consumer reads notifications from the alerts-outbox topic and
// dispatches them via a Sender. Offsets are committed only after a
// message is handled, giving at-least-once delivery; a duplicate alert
// is preferable to a silently dropped fraud warning.
type Consumer struct {
	reader *kafka.Reader
	dlq    *kafka.Writer
	sender Sender
}

// NewConsumer creates a Consumer connected to the given Kafka brokers.
func NewConsumer(brokers []string, sender Sender) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          OutboxTopic,
		GroupID:        "campusfind-alert-sender",
		MinBytes:       1,
		MaxBytes:       1 << 20, // 1 MiB
		CommitInterval: 0,       // explicit commits only
		StartOffset:    kafka.LastOffset,
	})

	dlq := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        DLQTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Consumer{
		reader: reader,
		dlq:    dlq,
		sender: sender,
	}
}

// Run blocks, consuming alerts until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("alert-sender: consuming from topic %q", OutboxTopic)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Clean shutdown.
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.dispatch(ctx, m); err != nil {
			// dispatch already logged the error and wrote to the DLQ.
			// Commit anyway so the consumer does not get stuck.
			log.Printf("alert-sender: routed alert key=%s to DLQ: %v", string(m.Key), err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Printf("alert-sender: commit failed (alert may be redelivered): %v", err)
		}
	}
}

// Close releases all Kafka resources.
func (c *Consumer) Close() error {
	rerr := c.reader.Close()
	werr := c.dlq.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// dispatch attempts delivery up to maxRetries times with backoff, then
// writes the raw message to the DLQ.
func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) error {
	var n models.Notification
	if err := json.Unmarshal(m.Value, &n); err != nil {
		return c.sendToDLQ(ctx, m, fmt.Errorf("unmarshal: %w", err))
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = c.sender.Send(ctx, &n)
		if lastErr == nil {
			log.Printf("alert-sender: delivered id=%s type=%s (attempt %d)", n.ID, n.Type, attempt)
			return nil
		}

		log.Printf("alert-sender: attempt %d/%d failed for id=%s: %v", attempt, maxRetries, n.ID, lastErr)

		if attempt < maxRetries {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return c.sendToDLQ(ctx, m, lastErr)
}

func (c *Consumer) sendToDLQ(ctx context.Context, original kafka.Message, reason error) error {
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   original.Key,
		Value: original.Value,
	})
	if err != nil {
		log.Printf("alert-sender: could not write to DLQ: %v", err)
	}
	return reason
}
