package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"certwatch/internal/scan"
)

// WebhookSender delivers a rendered expiry report to the mail-relay
// webhook as {subject, body, to, sender} with HTTP basic auth. The relay
// answers 201 on acceptance; anything else is a delivery failure. No
// retries at this layer; retry policy belongs to the relay.
type WebhookSender struct {
	URL     string
	User    string
	Pass    string
	To      string
	Sender  string
	Subject string
	Client  *http.Client
}

func NewWebhookSender(url, user, pass, to, sender, subject string) *WebhookSender {
	return &WebhookSender{
		URL:     url,
		User:    user,
		Pass:    pass,
		To:      to,
		Sender:  sender,
		Subject: subject,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	To      string `json:"to"`
	Sender  string `json:"sender"`
}

func (ws *WebhookSender) Send(ctx context.Context, report *scan.Report) error {
	if ws.URL == "" {
		return nil
	}

	body, err := RenderReport(report)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	payload, err := json.Marshal(webhookPayload{
		Subject: ws.Subject,
		Body:    body,
		To:      ws.To,
		Sender:  ws.Sender,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ws.User != "" {
		req.SetBasicAuth(ws.User, ws.Pass)
	}

	resp, err := ws.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
