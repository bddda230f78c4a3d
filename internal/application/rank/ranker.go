package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/sentiment"
	"stock-scout/internal/domain/signal"
)

// ErrNoUniverse means the loser universe could not be obtained and no
// fallback ticker list is configured. It is the only condition under which
// candidate selection gives up entirely.
var ErrNoUniverse = errors.New("no candidate universe available")

// MarketDataSource supplies quote snapshots and fundamentals. Implementations
// are expected to rate-limit and cache within a run themselves.
type MarketDataSource interface {
	LosersUniverse(ctx context.Context, limit int) ([]market.QuoteSnapshot, error)
	Quote(ctx context.Context, ticker string) (market.QuoteSnapshot, error)
	Fundamentals(ctx context.Context, ticker string) (market.Fundamentals, error)
}

// NewsSource supplies recent headlines per ticker.
type NewsSource interface {
	RecentNews(ctx context.Context, ticker string, lookback time.Duration) ([]market.NewsItem, error)
}

// SentimentScorer maps news items to an aggregate polarity. ok=false means
// no sentiment available (zero items), distinct from neutral.
type SentimentScorer interface {
	Score(items []market.NewsItem) (sentiment.Score, bool)
}

// Weights are the rank-score mix. They are configuration; equal weighting is
// the default.
type Weights struct {
	Sentiment  float64 `yaml:"sentiment"`
	Volatility float64 `yaml:"volatility"`
	InversePE  float64 `yaml:"inverse_pe"`
}

// DefaultWeights returns an equal mix.
func DefaultWeights() Weights {
	return Weights{Sentiment: 1, Volatility: 1, InversePE: 1}
}

// Validate rejects weight sets that cannot produce an ordering.
func (w Weights) Validate() error {
	if w.Sentiment < 0 || w.Volatility < 0 || w.InversePE < 0 {
		return fmt.Errorf("rank weights must be non-negative")
	}
	if w.Sentiment+w.Volatility+w.InversePE == 0 {
		return fmt.Errorf("at least one rank weight must be positive")
	}
	return nil
}

// Options bound the ranker's enrichment stage.
type Options struct {
	Weights         Weights
	Concurrency     int           // max in-flight per-candidate enrichments
	SourceTimeout   time.Duration // per external call; expired inputs become absent
	NewsLookback    time.Duration
	FallbackTickers []string // used when the universe itself cannot be fetched
}

// Selection is the ranked shortlist for one run.
type Selection struct {
	Candidates []signal.Candidate
	// Degraded marks a run that completed on fallback or partial data
	// (fallback universe, or fewer tickers than requested).
	Degraded bool
}

// Ranker selects the candidate universe (biggest daily losers) and ranks a
// shortlist on sentiment, volatility and valuation.
type Ranker struct {
	source MarketDataSource
	news   NewsSource
	scorer SentimentScorer
	opts   Options
}

func NewRanker(source MarketDataSource, news NewsSource, scorer SentimentScorer, opts Options) *Ranker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 10 * time.Second
	}
	if opts.NewsLookback <= 0 {
		opts.NewsLookback = 24 * time.Hour
	}
	if (opts.Weights == Weights{}) {
		opts.Weights = DefaultWeights()
	}
	return &Ranker{source: source, news: news, scorer: scorer, opts: opts}
}

// Run fetches the loser universe and selects candidates from it. A universe
// fetch failure switches to the configured static fallback list; that is a
// documented reduced-functionality mode, never a silent empty result.
func (r *Ranker) Run(ctx context.Context, topNInitial, topNFinal int) (Selection, error) {
	universe, err := r.source.LosersUniverse(ctx, topNInitial)
	if err != nil {
		log.Warn().Err(err).Msg("loser universe unavailable, using fallback ticker list")
		if len(r.opts.FallbackTickers) == 0 {
			return Selection{Degraded: true}, fmt.Errorf("%w: %v", ErrNoUniverse, err)
		}
		sel, err := r.SelectCandidates(ctx, r.fallbackUniverse(), topNInitial, topNFinal)
		sel.Degraded = true
		return sel, err
	}
	return r.SelectCandidates(ctx, universe, topNInitial, topNFinal)
}

// SelectCandidates runs the three ranking stages over a quote universe:
// cheap loser filter, concurrent enrichment, rank-and-cut. A universe smaller
// than topNInitial degrades the run but never fails it; a single candidate's
// enrichment failure marks that candidate's inputs absent and continues.
func (r *Ranker) SelectCandidates(ctx context.Context, universe []market.QuoteSnapshot, topNInitial, topNFinal int) (Selection, error) {
	var sel Selection
	if topNInitial <= 0 || topNFinal <= 0 {
		return sel, fmt.Errorf("topN bounds must be positive (initial=%d final=%d)", topNInitial, topNFinal)
	}

	stage1 := losers(universe, topNInitial)
	if len(stage1) < topNInitial {
		sel.Degraded = true
	}
	if len(stage1) == 0 {
		return sel, nil
	}

	candidates := r.enrich(ctx, stage1)
	for i := range candidates {
		candidates[i].RankScore = r.rankScore(&candidates[i])
	}

	// Total order: score descending, ties broken by ticker ascending so
	// repeated runs on identical inputs reproduce the same shortlist.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RankScore == candidates[j].RankScore {
			return candidates[i].Ticker < candidates[j].Ticker
		}
		return candidates[i].RankScore > candidates[j].RankScore
	})

	if len(candidates) > topNFinal {
		candidates = candidates[:topNFinal]
	}
	sel.Candidates = candidates
	return sel, nil
}

// losers picks the topN most-negative movers, ties broken by ticker
// ascending. Snapshots without a ticker are dropped.
func losers(universe []market.QuoteSnapshot, topN int) []market.QuoteSnapshot {
	out := make([]market.QuoteSnapshot, 0, len(universe))
	for _, q := range universe {
		if q.Ticker == "" {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PercentChange == out[j].PercentChange {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].PercentChange < out[j].PercentChange
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// enrich fans out fundamentals/news/history lookups across candidates with
// bounded concurrency. Each candidate writes only its own slot; a failure on
// one never blocks or corrupts another.
func (r *Ranker) enrich(ctx context.Context, quotes []market.QuoteSnapshot) []signal.Candidate {
	candidates := make([]signal.Candidate, len(quotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i := range quotes {
		i := i
		g.Go(func() error {
			candidates[i] = r.enrichOne(gctx, quotes[i])
			return nil
		})
	}
	// Workers never return errors; degradation is recorded per candidate.
	_ = g.Wait()
	return candidates
}

func (r *Ranker) enrichOne(ctx context.Context, quote market.QuoteSnapshot) signal.Candidate {
	q := quote
	c := signal.Candidate{Ticker: q.Ticker, Quote: &q}

	// The loser universe carries no price history; refresh the quote to get
	// the daily closes the volatility measure needs. Keep the universe's
	// percent change when the refresh fails.
	if len(q.DailyHistory) == 0 {
		if fresh, err := r.fetchQuote(ctx, q.Ticker); err == nil {
			if !q.Timestamp.IsZero() {
				// The universe's change figure is authoritative; the refresh
				// only contributes history.
				fresh.PercentChange = q.PercentChange
			}
			if fresh.Price == 0 {
				fresh.Price = q.Price
			}
			if fresh.Volume == 0 {
				fresh.Volume = q.Volume
			}
			*c.Quote = fresh
		} else {
			log.Debug().Err(err).Str("ticker", q.Ticker).Msg("quote refresh failed")
			if q.Timestamp.IsZero() {
				// Fallback-list placeholder with no live quote at all: the
				// percent change is unknown, not zero.
				c.Quote = nil
				c.MarkMissing(signal.MissingQuote)
			}
		}
	}

	if c.Quote != nil {
		if vol, ok := c.Quote.AnnualizedVolatility(); ok {
			c.Volatility = &vol
		} else {
			c.MarkMissing(signal.MissingVolatility)
		}
	} else {
		c.MarkMissing(signal.MissingVolatility)
	}

	if fund, err := r.fetchFundamentals(ctx, q.Ticker); err == nil {
		f := fund
		c.Fundamentals = &f
		if f.PERatio == nil {
			c.MarkMissing(signal.MissingPERatio)
		}
	} else {
		log.Warn().Err(err).Str("ticker", q.Ticker).Msg("fundamentals unavailable")
		c.MarkMissing(signal.MissingFundamentals)
	}

	items, err := r.fetchNews(ctx, q.Ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", q.Ticker).Msg("news unavailable")
		c.MarkMissing(signal.MissingSentiment)
	} else if score, ok := r.scorer.Score(items); ok {
		s := score
		c.Sentiment = &s
	} else {
		c.MarkMissing(signal.MissingSentiment)
	}

	return c
}

// rankScore is the weighted composite of the normalized inputs. Absent
// inputs contribute a zero term instead of excluding the candidate; the
// candidate's Missing list already records them.
func (r *Ranker) rankScore(c *signal.Candidate) float64 {
	w := r.opts.Weights
	total := w.Sentiment + w.Volatility + w.InversePE

	var score float64
	if c.Sentiment != nil {
		// Both strongly positive and strongly negative news make a loser
		// interesting, so the magnitude is what ranks.
		score += w.Sentiment * abs(c.Sentiment.Mean)
	}
	if c.Volatility != nil {
		score += w.Volatility * (*c.Volatility / (1 + *c.Volatility))
	}
	if c.Fundamentals != nil && c.Fundamentals.PERatio != nil && *c.Fundamentals.PERatio > 0 {
		inv := 1 / *c.Fundamentals.PERatio
		if inv > 1 {
			inv = 1
		}
		score += w.InversePE * inv
	}
	return score / total
}

// fallbackUniverse turns the configured static ticker list into quote
// placeholders. Live quotes for them are filled in during enrichment, which
// already refreshes history-less snapshots.
func (r *Ranker) fallbackUniverse() []market.QuoteSnapshot {
	quotes := make([]market.QuoteSnapshot, len(r.opts.FallbackTickers))
	for i, ticker := range r.opts.FallbackTickers {
		quotes[i] = market.QuoteSnapshot{Ticker: ticker}
	}
	return quotes
}

func (r *Ranker) fetchQuote(ctx context.Context, ticker string) (market.QuoteSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.SourceTimeout)
	defer cancel()
	return r.source.Quote(ctx, ticker)
}

func (r *Ranker) fetchFundamentals(ctx context.Context, ticker string) (market.Fundamentals, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.SourceTimeout)
	defer cancel()
	return r.source.Fundamentals(ctx, ticker)
}

func (r *Ranker) fetchNews(ctx context.Context, ticker string) ([]market.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.SourceTimeout)
	defer cancel()
	return r.news.RecentNews(ctx, ticker, r.opts.NewsLookback)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
