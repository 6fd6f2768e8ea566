// Package notify delivers broadcast reports to a chat webhook.
// Delivery is best effort: failures are reported to the caller for
// logging but never block a broadcast.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nocap-ai/nocap/internal/model"
)

// Notifier is the sink interface consumed by the lifecycle engine
type Notifier interface {
	Notify(ctx context.Context, report string) error
}

// DiscordNotifier posts broadcast reports to a Discord-compatible webhook
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
}

type webhookPayload struct {
	Content string `json:"content"`
}

// NewDiscordNotifier creates a webhook notifier. An empty webhook URL
// yields a notifier whose Notify reports a configuration error; callers
// treat that like any other delivery failure.
func NewDiscordNotifier(cfg *model.NotifyConfig) *DiscordNotifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify posts the report text wrapped in a code block
func (n *DiscordNotifier) Notify(ctx context.Context, report string) error {
	if n.webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	payload := webhookPayload{
		Content: fmt.Sprintf("**New nocap-ai Broadcast**\n```text\n%s\n```", report),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
