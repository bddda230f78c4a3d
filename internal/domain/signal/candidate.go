package signal

import (
	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/sentiment"
)

// Names recorded in Candidate.Missing when an enrichment input could not be
// obtained for a run.
const (
	MissingQuote        = "quote"
	MissingFundamentals = "fundamentals"
	MissingSentiment    = "sentiment"
	MissingVolatility   = "volatility"
	MissingPERatio      = "pe_ratio"
)

// Candidate is one surviving ticker in a pipeline run, carrying whatever
// inputs could be fetched for it. It is a transient value: RankScore is
// recomputed every run and never cached across runs.
type Candidate struct {
	Ticker       string
	Quote        *market.QuoteSnapshot
	Fundamentals *market.Fundamentals
	Sentiment    *sentiment.Score
	Volatility   *float64 // annualized; nil when price history was unavailable
	RankScore    float64
	Missing      []string // which inputs were absent this run
}

// PercentChange returns the daily percent change when a quote is present.
func (c Candidate) PercentChange() (float64, bool) {
	if c.Quote == nil {
		return 0, false
	}
	return c.Quote.PercentChange, true
}

// SentimentMean returns the aggregate sentiment when one is present.
func (c Candidate) SentimentMean() (float64, bool) {
	if c.Sentiment == nil {
		return 0, false
	}
	return c.Sentiment.Mean, true
}

// MarkMissing records an absent input, once.
func (c *Candidate) MarkMissing(name string) {
	for _, m := range c.Missing {
		if m == name {
			return
		}
	}
	c.Missing = append(c.Missing, name)
}
