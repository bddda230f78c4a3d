package alert

import (
	"fmt"
	"time"

	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/signal"
)

// Decision is the per-candidate outcome of alert-threshold evaluation for a
// single run. It carries no cross-run state of its own; the engine's
// cool-down store handles suppression.
type Decision struct {
	Ticker      string  `json:"ticker"`
	ShouldAlert bool    `json:"should_alert"`
	Reason      string  `json:"reason"`
	Summary     Summary `json:"summary"`
}

// Summary is the alert payload handed to notifiers. Fields sourced from
// absent inputs stay at their zero value and are omitted in rendering rather
// than failing the alert.
type Summary struct {
	Ticker        string       `json:"ticker"`
	Action        string       `json:"action,omitempty"` // "Buy" or "Sell" for actionable labels
	Label         signal.Label `json:"label"`
	Strength      float64      `json:"strength"`
	Sentiment     *float64     `json:"sentiment,omitempty"`
	PercentChange *float64     `json:"percent_change,omitempty"`
	Volatility    *float64     `json:"volatility,omitempty"`
	Sector        string       `json:"sector,omitempty"`
	Description   string       `json:"description,omitempty"`

	// ApproxLargeCap is nil when fundamentals were unavailable. When set it
	// is a market-cap heuristic, not verified index membership, and must be
	// presented as approximate.
	ApproxLargeCap *bool `json:"approx_large_cap,omitempty"`
}

// Notification is what the engine hands to a notifier channel.
type Notification struct {
	Decision Decision
	RunAt    time.Time
	Degraded bool // run completed on fallback/partial data
}

// Evaluate decides whether a signal crosses the notification threshold:
// actionable labels alert, Neutral and InsufficientData never do.
// Fundamentals may be nil; the summary degrades by omission.
func Evaluate(sig signal.TradingSignal, fundamentals *market.Fundamentals) Decision {
	d := Decision{
		Ticker:      sig.Ticker,
		ShouldAlert: sig.Label.Actionable(),
		Summary: Summary{
			Ticker:        sig.Ticker,
			Label:         sig.Label,
			Strength:      sig.Strength,
			Sentiment:     sig.Evidence.Sentiment,
			PercentChange: sig.Evidence.PercentChange,
			Volatility:    sig.Evidence.Volatility,
		},
	}

	switch sig.Label {
	case signal.LabelBuyMomentumOversold:
		d.Summary.Action = "Buy"
		d.Reason = fmt.Sprintf("oversold with positive sentiment (strength %.2f)", sig.Strength)
	case signal.LabelSellMomentumOverbought:
		d.Summary.Action = "Sell"
		d.Reason = fmt.Sprintf("overbought with negative sentiment (strength %.2f)", sig.Strength)
	case signal.LabelInsufficientData:
		d.Reason = "insufficient data"
	default:
		d.Reason = "no threshold crossed"
	}

	if fundamentals != nil {
		d.Summary.Sector = fundamentals.Sector
		d.Summary.Description = fundamentals.Description
		approx := fundamentals.ApproxLargeCap
		d.Summary.ApproxLargeCap = &approx
	}
	return d
}
