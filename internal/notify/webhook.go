package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook posts a Slack-compatible {"text": ...} message.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Notify(ctx context.Context, deal Deal) (string, error) {
	body, err := json.Marshal(map[string]string{"text": webhookText(deal)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("webhook returned %s: %s", resp.Status, string(b))
	}
	return "Deal posted to the team channel", nil
}

func webhookText(d Deal) string {
	return fmt.Sprintf(":trophy: *%s* closed with *%s* at $%.2f (effective $%.2f with %s, saved $%.2f)",
		d.ProductName, d.WinnerSeller, d.Price, d.EffectivePrice, d.CardName, d.Savings)
}
