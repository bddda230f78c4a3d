package alert

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	alertDomain "stock-scout/internal/domain/alert"
	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/signal"
)

// Notifier delivers a notification on one channel. Delivery failure is an
// operator concern, never a pipeline failure.
type Notifier interface {
	Send(ctx context.Context, n alertDomain.Notification) error
}

// HistoryStore remembers the last alerted {ticker, label} pair so a condition
// that persists across runs does not turn into an alert storm.
type HistoryStore interface {
	LastAlert(ctx context.Context, ticker string, label signal.Label) (time.Time, bool, error)
	RecordAlert(ctx context.Context, ticker string, label signal.Label, at time.Time) error
}

// Outcome summarizes one engine pass.
type Outcome struct {
	Evaluated  int
	Sent       int
	Suppressed int
	Failed     int
}

// Engine evaluates signals against the alert policy, applies the cool-down,
// and fans deliveries out to all configured channels.
type Engine struct {
	history   HistoryStore
	notifiers []Notifier
	cooldown  time.Duration
	now       func() time.Time
}

func NewEngine(history HistoryStore, cooldown time.Duration, notifiers ...Notifier) *Engine {
	return &Engine{
		history:   history,
		notifiers: notifiers,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Evaluate is the pure threshold decision for a single signal.
func (e *Engine) Evaluate(sig signal.TradingSignal, fundamentals *market.Fundamentals) alertDomain.Decision {
	return alertDomain.Evaluate(sig, fundamentals)
}

// Dispatch sends notifications for the alerting decisions of a run. A
// decision within its cool-down window is suppressed; everything else goes to
// every channel, and a channel error downgrades to a log line.
func (e *Engine) Dispatch(ctx context.Context, decisions []alertDomain.Decision, runAt time.Time, degraded bool) Outcome {
	out := Outcome{Evaluated: len(decisions)}
	for _, d := range decisions {
		if !d.ShouldAlert {
			continue
		}
		if e.suppressed(ctx, d) {
			log.Info().Str("ticker", d.Ticker).Str("label", string(d.Summary.Label)).
				Msg("alert suppressed by cool-down")
			out.Suppressed++
			continue
		}

		n := alertDomain.Notification{Decision: d, RunAt: runAt, Degraded: degraded}
		delivered := false
		for _, notifier := range e.notifiers {
			if err := notifier.Send(ctx, n); err != nil {
				log.Error().Err(err).Str("ticker", d.Ticker).Msg("alert delivery failed")
				continue
			}
			delivered = true
		}
		if !delivered {
			out.Failed++
			continue
		}
		out.Sent++

		if e.history != nil {
			if err := e.history.RecordAlert(ctx, d.Ticker, d.Summary.Label, e.now()); err != nil {
				log.Error().Err(err).Str("ticker", d.Ticker).Msg("record alert history failed")
			}
		}
	}
	return out
}

// suppressed consults the history store. Store errors fail open: a broken
// store must not silence alerts.
func (e *Engine) suppressed(ctx context.Context, d alertDomain.Decision) bool {
	if e.history == nil || e.cooldown <= 0 {
		return false
	}
	last, ok, err := e.history.LastAlert(ctx, d.Ticker, d.Summary.Label)
	if err != nil {
		log.Warn().Err(err).Str("ticker", d.Ticker).Msg("alert history lookup failed, not suppressing")
		return false
	}
	return ok && e.now().Sub(last) < e.cooldown
}
