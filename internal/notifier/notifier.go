package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/config"
)

// Message is one outbound email delivery request.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Link    string `json:"link,omitempty"`
}

// Notifier delivers email-channel notifications. In-app notifications
// are rows in the database and never pass through here.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromConfig returns the webhook notifier when an endpoint is
// configured, otherwise a log-only fallback.
func NewFromConfig(cfg config.NotifierConfig, logger *zap.Logger) Notifier {
	if cfg.WebhookURL == "" {
		return &logNotifier{logger: logger}
	}
	return &webhookNotifier{
		url:        cfg.WebhookURL,
		from:       cfg.EmailFrom,
		maxRetries: cfg.MaxRetries,
		maxElapsed: time.Duration(cfg.MaxElapsedSeconds) * time.Second,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type webhookNotifier struct {
	url        string
	from       string
	maxRetries int
	maxElapsed time.Duration
	client     *http.Client
	logger     *zap.Logger
}

// Send posts the message to the delivery webhook, retrying transient
// failures with exponential backoff.
func (n *webhookNotifier) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = n.from
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("delivery endpoint returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("delivery rejected with %d", resp.StatusCode))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = n.maxElapsed
	wrapped := backoff.WithMaxRetries(backoff.WithContext(policy, ctx), uint64(n.maxRetries))

	if err := backoff.Retry(operation, wrapped); err != nil {
		n.logger.Error("notification delivery failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return err
	}
	return nil
}

// logNotifier records the message instead of delivering it. Used in
// development and whenever no webhook endpoint is configured.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification (log only)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("link", msg.Link))
	return nil
}
