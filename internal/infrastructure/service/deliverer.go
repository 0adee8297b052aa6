// Package service contains small infrastructure adapters that implement
// domain service interfaces.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/pkg/circuitbreaker"
	"github.com/regen-hub/regenmon-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION DELIVERERS
// The persistent feed is the baseline; these adapters push an out-of-band
// copy. Both are fire-and-forget: a failed push never fails the producer.
// ══════════════════════════════════════════════════════════════════════════════

// LogDeliverer writes deliveries to the log. The default in environments
// without an external channel.
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer creates a new LogDeliverer.
func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDeliverer{logger: logger.With("deliverer", "log")}
}

// Deliver implements notification.Deliverer.
func (d *LogDeliverer) Deliver(_ context.Context, n *notification.Notification) error {
	d.logger.Info("notification delivered",
		"notification_id", n.ID,
		"recipient", n.RecipientID,
		"type", n.Type,
		"title", n.Title,
	)
	return nil
}

// WebhookDeliverer POSTs notifications to a configured endpoint, for hubs
// that forward the feed into an external channel (Discord, Slack, a custom
// relay). Transient failures are retried with backoff; a dead endpoint
// trips the breaker so deliveries stop hammering it.
type WebhookDeliverer struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewWebhookDeliverer creates a new WebhookDeliverer.
func NewWebhookDeliverer(url string, timeout time.Duration, logger *slog.Logger) *WebhookDeliverer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("deliverer", "webhook")

	return &WebhookDeliverer{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		retrier:    retry.WebhookRetrier(),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name: "notify_webhook",
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn("webhook breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

// webhookPayload is the wire shape of one delivery.
type webhookPayload struct {
	NotificationID string    `json:"notification_id"`
	RecipientID    string    `json:"recipient_id"`
	CreatureID     string    `json:"creature_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// Deliver implements notification.Deliverer.
func (d *WebhookDeliverer) Deliver(ctx context.Context, n *notification.Notification) error {
	payload := webhookPayload{
		NotificationID: string(n.ID),
		RecipientID:    string(n.RecipientID),
		CreatureID:     n.CreatureID,
		Type:           string(n.Type),
		Title:          n.Title,
		Body:           n.Body,
		CreatedAt:      n.CreatedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook deliverer: marshal: %w", err)
	}

	return d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.retrier.Do(ctx, func(ctx context.Context) error {
			return d.post(ctx, n, body)
		})
	})
}

// post performs one delivery attempt. Server-side failures are marked
// retryable, client-side rejections permanent.
func (d *WebhookDeliverer) post(ctx context.Context, n *notification.Notification, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("webhook deliverer: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("webhook deliverer: post: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("webhook deliverer: endpoint returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("webhook deliverer: endpoint returned %d", resp.StatusCode))
	}

	d.logger.Debug("notification forwarded",
		"notification_id", n.ID,
		"status", resp.StatusCode,
	)
	return nil
}
