// Package webhook delivers alert payloads to an HTTP endpoint (the mail
// gateway or any collector accepting JSON POSTs).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"insider-sentinel/monitor/internal/alert"
)

// Notifier implements alert.Notifier by POSTing payloads as JSON.
type Notifier struct {
	url    string
	client *http.Client
}

// NewNotifier returns a webhook notifier for the given URL. Request deadlines
// come from the caller's context; no retries are performed here.
func NewNotifier(url string) *Notifier {
	return &Notifier{url: url, client: http.DefaultClient}
}

// Notify marshals the payload and POSTs it.
func (n *Notifier) Notify(ctx context.Context, p *alert.Payload) error {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return push(ctx, n.client, n.url, raw)
}

// Close is a no-op; the shared HTTP client owns no per-notifier resources.
func (n *Notifier) Close() error { return nil }

// PushJSON POSTs a raw alert payload to url. Used by the delivery worker,
// which forwards Kafka message values unmodified.
// Returns an error if the request fails or the endpoint returns non-2xx.
func PushJSON(ctx context.Context, url string, raw []byte) error {
	return push(ctx, http.DefaultClient, url, raw)
}

func push(ctx context.Context, client *http.Client, url string, raw []byte) error {
	if url == "" {
		return fmt.Errorf("webhook: URL is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: push returned %s", resp.Status)
	}
	return nil
}
