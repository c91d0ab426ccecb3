// alert-sender is a long-running Kafka consumer that reads fraud and
// urgency notifications from the "alerts-outbox" topic and delivers them
// to campus security via the configured webhook.
//
// Configuration is done entirely via environment variables so the binary
// runs identically in Docker, on bare metal, or in any CI environment:
//
//	KAFKA_BROKERS      comma-separated broker list, e.g. "kafka:9092"
//	ALERT_WEBHOOK_URL  endpoint that receives alert payloads as JSON;
//	                   empty logs alerts to stdout instead
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/campusfind/campusfind/internal/alerts"
)

func main() {
	brokers := requireEnv("KAFKA_BROKERS")
	webhookURL := os.Getenv("ALERT_WEBHOOK_URL")

	var sender alerts.Sender
	if webhookURL != "" {
		sender = alerts.NewWebhookSender(webhookURL)
	} else {
		log.Println("alert-sender: ALERT_WEBHOOK_URL not set, logging alerts instead")
		sender = alerts.LogSender{}
	}

	consumer := alerts.NewConsumer(strings.Split(brokers, ","), sender)
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Printf("alert-sender: error closing consumer: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("alert-sender: starting (brokers=%s)", brokers)
	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("alert-sender: fatal error: %v", err)
	}
	log.Println("alert-sender: shutdown complete")
}

// requireEnv returns the value of the named environment variable or calls
// log.Fatal if it is empty.
func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("alert-sender: required environment variable %q is not set", key)
	}
	return v
}
