package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stock-scout/internal/domain/alert"
)

// TelegramNotifier pushes alert notifications to a chat via the Bot API.
type TelegramNotifier struct {
	token      string
	chatID     int64
	baseURL    string
	httpClient *http.Client
}

func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send renders the alert as plain text and posts it to the configured chat.
func (c *TelegramNotifier) Send(ctx context.Context, n alert.Notification) error {
	if c == nil {
		return fmt.Errorf("telegram notifier is nil")
	}
	if c.token == "" || c.chatID == 0 {
		return fmt.Errorf("telegram token or chat_id missing")
	}

	payload := map[string]interface{}{
		"chat_id": c.chatID,
		"text":    renderText(n),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram send failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}

// renderText builds the plain-text alert message. Absent inputs are omitted
// rather than shown as zeros.
func renderText(n alert.Notification) string {
	s := n.Decision.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s\n", s.Action, s.Ticker, n.Decision.Reason)
	fmt.Fprintf(&b, "Signal: %s (strength %.2f)\n", s.Label, s.Strength)
	if s.PercentChange != nil {
		fmt.Fprintf(&b, "Daily change: %.2f%%\n", *s.PercentChange)
	}
	if s.Sentiment != nil {
		fmt.Fprintf(&b, "News sentiment: %.2f\n", *s.Sentiment)
	}
	if s.Volatility != nil {
		fmt.Fprintf(&b, "Annualized volatility: %.2f\n", *s.Volatility)
	}
	if s.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", s.Sector)
	}
	if s.ApproxLargeCap != nil && *s.ApproxLargeCap {
		b.WriteString("Large-cap (approximate, by market cap)\n")
	}
	if n.Degraded {
		b.WriteString("Note: this run used fallback or partial data.\n")
	}
	fmt.Fprintf(&b, "Run at %s", n.RunAt.Format(time.RFC3339))
	return b.String()
}
