package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/campusfind/campusfind/pkg/models"
)

// Sender is the interface any alert delivery backend must implement.
// Keeping it minimal means backends are trivially swappable without
// changing the Kafka consumer.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) error
}

// WebhookSender delivers alerts as JSON POSTs to a configured endpoint
// (a campus-security channel integration, typically). stdlib net/http
// only; no SDK dependency.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSender creates a WebhookSender pointed at url.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// webhookPayload is the JSON body posted to the endpoint.
type webhookPayload struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	RaisedAt string `json:"raised_at"`
}

// Send posts the alert. A non-2xx response is an error so the consumer
// can retry or route to the DLQ.
func (s *WebhookSender) Send(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(webhookPayload{
		ID:       n.ID,
		Type:     string(n.Type),
		Title:    n.Title,
		Message:  n.Message,
		RaisedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// LogSender writes alerts to the process log. Used when no webhook is
// configured, so the alert-sender still drains the topic in development.
type LogSender struct{}

// Send logs the alert.
func (LogSender) Send(_ context.Context, n *models.Notification) error {
	log.Printf("alert-sender: [%s] %s: %s", n.Type, n.Title, n.Message)
	return nil
}
