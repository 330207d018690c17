// Package notify delivers completed run records to an external webhook.
//
// When a webhook_url is configured, every finished operation is POSTed
// there as JSON. Delivery uses hashicorp/go-retryablehttp so transient
// receiver hiccups are retried with backoff. Delivery is best-effort:
// a run's outcome never depends on whether the webhook accepted it, so
// failures are logged and dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Notifier posts run records to a configured webhook URL.
// A Notifier with an empty URL is valid and does nothing.
type Notifier struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Notifier for the given webhook URL.
// The client retries up to 3 times with linear jitter backoff and a
// 30 second per-request timeout.
func New(url string, logger *slog.Logger) *Notifier {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Backoff = retryablehttp.LinearJitterBackoff

	// Route logging through slog instead of the library's logger
	retryClient.Logger = nil

	retryClient.HTTPClient.Timeout = 30 * time.Second

	return &Notifier{
		url:        url,
		httpClient: retryClient.StandardClient(),
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// Notify posts the record to the webhook. Returns an error for logging
// purposes only; callers are expected to treat delivery as best-effort.
func (n *Notifier) Notify(ctx context.Context, record any) error {
	if n.url == "" {
		return nil
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("webhook delivered",
		slog.String("url", n.url),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
