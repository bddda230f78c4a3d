package market

import (
	"fmt"
	"math"
	"time"
)

// TradingDaysPerYear is used to annualize daily-return volatility.
const TradingDaysPerYear = 252

// QuoteSnapshot is one ticker's market state captured for a single pipeline
// run. Snapshots are produced fresh per run and never persisted.
type QuoteSnapshot struct {
	Ticker        string
	Price         float64
	PercentChange float64 // daily change in percent; negative for losers
	Volume        int64
	DailyHistory  []float64 // recent daily closes, oldest first; may be empty
	Timestamp     time.Time
}

// Validate performs the basic required-field check.
func (q QuoteSnapshot) Validate() error {
	if q.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	return nil
}

// AnnualizedVolatility returns the standard deviation of daily returns over
// DailyHistory, annualized by sqrt(252). The second return is false when the
// history is too short to compute a return series.
func (q QuoteSnapshot) AnnualizedVolatility() (float64, bool) {
	if len(q.DailyHistory) < 2 {
		return 0, false
	}
	returns := make([]float64, 0, len(q.DailyHistory)-1)
	for i := 1; i < len(q.DailyHistory); i++ {
		prev := q.DailyHistory[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, (q.DailyHistory[i]-prev)/prev)
	}
	if len(returns) < 1 {
		return 0, false
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear), true
}

// Fundamentals carries per-ticker company data used for ranking and alert
// payloads.
type Fundamentals struct {
	Ticker      string
	MarketCap   float64
	PERatio     *float64 // forward P/E; nil when the provider has none
	Sector      string
	Description string

	// ApproxLargeCap is a market-cap heuristic (cap above a configured
	// floor) standing in for authoritative index-membership data. It is an
	// approximation and must be labeled as such in any output.
	ApproxLargeCap bool
}

// NewsItem is a single headline/article fetched for a ticker. Zero or more
// per ticker per run.
type NewsItem struct {
	Ticker      string
	Headline    string
	Body        string
	PublishedAt time.Time
}
