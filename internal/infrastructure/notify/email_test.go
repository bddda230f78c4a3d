package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"stock-scout/internal/domain/alert"
	"stock-scout/internal/domain/signal"
)

func TestEmailNotifier_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e := NewEmailNotifier("smtp.example.com", 587, "user", "pass", "alerts@example.com", []string{"me@example.com"})
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := e.Send(context.Background(), buyNotification()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "alerts@example.com" || len(gotTo) != 1 {
		t.Fatalf("unexpected smtp call: %s %s %v", gotAddr, gotFrom, gotTo)
	}

	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: [stock-scout] Buy signal: TICKX") {
		t.Errorf("subject missing: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Error("expected html content type")
	}
	if !strings.Contains(msg, "Technology") || !strings.Contains(msg, "approximate") {
		t.Errorf("body missing fundamentals context: %q", msg)
	}
}

func TestEmailNotifier_MissingConfig(t *testing.T) {
	e := NewEmailNotifier("", 0, "", "", "", nil)
	if err := e.Send(context.Background(), buyNotification()); err == nil {
		t.Fatal("expected error for incomplete config")
	}
}

func TestRenderEmail_OmitsAbsentMetrics(t *testing.T) {
	d := alert.Evaluate(signal.TradingSignal{
		Ticker: "BARE",
		Label:  signal.LabelBuyMomentumOversold,
	}, nil)
	body, err := renderEmail(alert.Notification{Decision: d, RunAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, "News sentiment") || strings.Contains(body, "Annualized volatility") {
		t.Errorf("absent metrics must not render: %q", body)
	}
	if strings.Contains(body, "Large-cap") {
		t.Errorf("unknown cap size must not render: %q", body)
	}
}
