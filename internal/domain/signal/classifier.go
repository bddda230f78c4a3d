package signal

import "fmt"

// Label enumerates the discrete trading-signal categories. Labels are always
// one of these values, never free text.
type Label string

const (
	LabelBuyMomentumOversold    Label = "buy_momentum_oversold"
	LabelSellMomentumOverbought Label = "sell_momentum_overbought"
	LabelNeutral                Label = "neutral"
	LabelInsufficientData       Label = "insufficient_data"
)

// Actionable reports whether the label represents a tradeable recommendation.
func (l Label) Actionable() bool {
	return l == LabelBuyMomentumOversold || l == LabelSellMomentumOverbought
}

// Evidence carries the inputs a classification was based on. Nil fields were
// absent for the run.
type Evidence struct {
	Sentiment     *float64 `json:"sentiment,omitempty"`
	PercentChange *float64 `json:"percent_change,omitempty"`
	Volatility    *float64 `json:"volatility,omitempty"`
}

// TradingSignal is the classification of one candidate for one run.
type TradingSignal struct {
	Ticker   string   `json:"ticker"`
	Label    Label    `json:"label"`
	Strength float64  `json:"strength"` // normalized distance past thresholds, [0,1]
	Evidence Evidence `json:"evidence"`
}

// Thresholds is the classification policy. Values are configuration, not
// code: they are loaded at startup and passed in so policy can change
// without touching the decision logic.
type Thresholds struct {
	OversoldPct   float64 `yaml:"oversold_pct"`   // percent drop that counts as oversold (positive number)
	OverboughtPct float64 `yaml:"overbought_pct"` // percent gain that counts as overbought
	SentimentBuy  float64 `yaml:"sentiment_buy"`  // sentiment must exceed this to confirm a buy
	SentimentSell float64 `yaml:"sentiment_sell"` // sentiment must fall below this to confirm a sell
}

// DefaultThresholds returns the documented default policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OversoldPct:   5,
		OverboughtPct: 5,
		SentimentBuy:  0.5,
		SentimentSell: -0.5,
	}
}

// Validate rejects policies the decision table cannot work with.
func (t Thresholds) Validate() error {
	if t.OversoldPct <= 0 {
		return fmt.Errorf("oversold_pct must be positive, got %v", t.OversoldPct)
	}
	if t.OverboughtPct <= 0 {
		return fmt.Errorf("overbought_pct must be positive, got %v", t.OverboughtPct)
	}
	if t.SentimentBuy <= -1 || t.SentimentBuy >= 1 {
		return fmt.Errorf("sentiment_buy must be within (-1, 1), got %v", t.SentimentBuy)
	}
	if t.SentimentSell <= -1 || t.SentimentSell >= 1 {
		return fmt.Errorf("sentiment_sell must be within (-1, 1), got %v", t.SentimentSell)
	}
	return nil
}

// Classifier maps a candidate's price/sentiment state to a trading signal.
// It is a pure decision table: identical candidate in, identical signal out.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify applies the decision table:
//
//	sentiment absent AND percent change absent  -> InsufficientData
//	pct <= -OversoldPct AND sentiment > SentimentBuy   -> BuyMomentumOversold
//	pct >= OverboughtPct AND sentiment < SentimentSell -> SellMomentumOverbought
//	otherwise                                   -> Neutral
func (cl *Classifier) Classify(c Candidate) TradingSignal {
	sig := TradingSignal{Ticker: c.Ticker, Label: LabelNeutral}

	pct, hasPct := c.PercentChange()
	sent, hasSent := c.SentimentMean()
	if hasPct {
		v := pct
		sig.Evidence.PercentChange = &v
	}
	if hasSent {
		v := sent
		sig.Evidence.Sentiment = &v
	}
	if c.Volatility != nil {
		v := *c.Volatility
		sig.Evidence.Volatility = &v
	}

	t := cl.thresholds
	switch {
	case !hasPct && !hasSent:
		sig.Label = LabelInsufficientData
	case hasPct && hasSent && pct <= -t.OversoldPct && sent > t.SentimentBuy:
		sig.Label = LabelBuyMomentumOversold
		sig.Strength = strength(
			(-pct-t.OversoldPct)/t.OversoldPct,
			(sent-t.SentimentBuy)/(1-t.SentimentBuy),
		)
	case hasPct && hasSent && pct >= t.OverboughtPct && sent < t.SentimentSell:
		sig.Label = LabelSellMomentumOverbought
		sig.Strength = strength(
			(pct-t.OverboughtPct)/t.OverboughtPct,
			(t.SentimentSell-sent)/(1+t.SentimentSell),
		)
	}
	return sig
}

// strength averages the excess-past-threshold ratios and clamps to [0,1],
// so same-label signals can be ranked against each other.
func strength(ratios ...float64) float64 {
	var sum float64
	for _, r := range ratios {
		if r < 0 {
			r = 0
		}
		if r > 1 {
			r = 1
		}
		sum += r
	}
	return sum / float64(len(ratios))
}
