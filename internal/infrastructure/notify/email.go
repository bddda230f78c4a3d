package notify

import (
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"stock-scout/internal/domain/alert"
)

var emailBody = template.Must(template.New("alert").Parse(`<html><body>
<h2>{{.Action}} signal: {{.Ticker}}</h2>
<p>{{.Reason}}</p>
<table>
<tr><td>Label</td><td>{{.Label}}</td></tr>
<tr><td>Strength</td><td>{{printf "%.2f" .Strength}}</td></tr>
{{if .PercentChange}}<tr><td>Daily change</td><td>{{printf "%.2f%%" .PercentChange}}</td></tr>{{end}}
{{if .Sentiment}}<tr><td>News sentiment</td><td>{{printf "%.2f" .Sentiment}}</td></tr>{{end}}
{{if .Volatility}}<tr><td>Annualized volatility</td><td>{{printf "%.2f" .Volatility}}</td></tr>{{end}}
{{if .Sector}}<tr><td>Sector</td><td>{{.Sector}}</td></tr>{{end}}
{{if .LargeCap}}<tr><td>Size</td><td>Large-cap (approximate, by market cap)</td></tr>{{end}}
</table>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Degraded}}<p><em>This run used fallback or partial data.</em></p>{{end}}
<p>Run at {{.RunAt}}</p>
</body></html>`))

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers alerts as HTML mail over SMTP.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	send     sendFunc
}

func NewEmailNotifier(host string, port int, username, password, from string, to []string) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
	}
}

func (e *EmailNotifier) Send(_ context.Context, n alert.Notification) error {
	if e.host == "" || e.from == "" || len(e.to) == 0 {
		return fmt.Errorf("email notifier host/from/to missing")
	}

	body, err := renderEmail(n)
	if err != nil {
		return fmt.Errorf("render alert email: %w", err)
	}

	s := n.Decision.Summary
	subject := fmt.Sprintf("[stock-scout] %s signal: %s", s.Action, s.Ticker)
	msg := buildMessage(e.from, e.to, subject, body)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	if err := e.send(addr, auth, e.from, e.to, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// renderEmail executes the body template over a map so that metrics from
// absent inputs disappear from the table instead of rendering as 0.00.
func renderEmail(n alert.Notification) (string, error) {
	s := n.Decision.Summary
	data := map[string]interface{}{
		"Ticker":      s.Ticker,
		"Action":      s.Action,
		"Reason":      n.Decision.Reason,
		"Label":       string(s.Label),
		"Strength":    s.Strength,
		"Sector":      s.Sector,
		"Description": s.Description,
		"Degraded":    n.Degraded,
		"RunAt":       n.RunAt.Format(time.RFC3339),
	}
	if s.PercentChange != nil {
		data["PercentChange"] = *s.PercentChange
	}
	if s.Sentiment != nil {
		data["Sentiment"] = *s.Sentiment
	}
	if s.Volatility != nil {
		data["Volatility"] = *s.Volatility
	}
	if s.ApproxLargeCap != nil && *s.ApproxLargeCap {
		data["LargeCap"] = true
	}

	var b strings.Builder
	if err := emailBody.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
