package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"stock-scout/internal/domain/market"
	"stock-scout/internal/infrastructure/external/fmp"
	"stock-scout/internal/infrastructure/external/yahoo"
)

// largeCapFloor is the market-cap heuristic behind the approximate large-cap
// label. It is a coarse cut, not an index-membership check.
const largeCapFloor = 10e9

// maxHeadlines caps how many feed entries feed into sentiment per ticker.
const maxHeadlines = 5

type quoteAPI interface {
	BiggestLosers(ctx context.Context, limit int) ([]fmp.Mover, error)
	FullQuote(ctx context.Context, ticker string) (fmp.Quote, error)
	CompanyProfile(ctx context.Context, ticker string) (fmp.Profile, error)
}

type historyAPI interface {
	DailyHistory(ctx context.Context, ticker string) (yahoo.History, error)
	Headlines(ctx context.Context, ticker string) ([]yahoo.Headline, error)
}

// FundamentalsCache keeps profile lookups warm across runs. Get returns
// ok=false for a miss or a stale entry; staleness policy belongs to the
// cache, not the source.
type FundamentalsCache interface {
	Get(ctx context.Context, ticker string) (market.Fundamentals, bool, error)
	Put(ctx context.Context, f market.Fundamentals) error
}

// Source combines the FMP and Yahoo clients into the quote, fundamentals and
// news provider the ranking stage consumes.
type Source struct {
	quotes  quoteAPI
	history historyAPI
	cache   FundamentalsCache
	now     func() time.Time
}

func NewSource(quotes *fmp.Client, history *yahoo.Client, cache FundamentalsCache) *Source {
	return &Source{quotes: quotes, history: history, cache: cache, now: time.Now}
}

// LosersUniverse maps today's biggest percentage losers into quote snapshots.
// The movers endpoint carries no price history; enrichment refreshes the
// snapshots it shortlists.
func (s *Source) LosersUniverse(ctx context.Context, limit int) ([]market.QuoteSnapshot, error) {
	movers, err := s.quotes.BiggestLosers(ctx, limit)
	if err != nil {
		return nil, err
	}
	snapshots := make([]market.QuoteSnapshot, 0, len(movers))
	for _, m := range movers {
		snapshots = append(snapshots, market.QuoteSnapshot{
			Ticker:        m.Symbol,
			Price:         m.Price,
			PercentChange: m.ChangesPercentage,
			Timestamp:     s.now(),
		})
	}
	return snapshots, nil
}

// Quote returns a full snapshot: FMP supplies price, change and volume, Yahoo
// supplies the month of daily closes volatility needs. A history failure
// degrades to a history-less snapshot instead of failing the quote.
func (s *Source) Quote(ctx context.Context, ticker string) (market.QuoteSnapshot, error) {
	q, err := s.quotes.FullQuote(ctx, ticker)
	if err != nil {
		return market.QuoteSnapshot{}, err
	}
	snapshot := market.QuoteSnapshot{
		Ticker:        ticker,
		Price:         q.Price,
		PercentChange: q.ChangesPercentage,
		Volume:        q.Volume,
		Timestamp:     s.now(),
	}
	if h, err := s.history.DailyHistory(ctx, ticker); err == nil {
		snapshot.DailyHistory = h.DailyCloses
	} else {
		log.Warn().Err(err).Str("ticker", ticker).Msg("price history unavailable")
	}
	return snapshot, nil
}

// Fundamentals reads through the cache. PE comes from the quote endpoint and
// stays nil when the provider sends null.
func (s *Source) Fundamentals(ctx context.Context, ticker string) (market.Fundamentals, error) {
	if s.cache != nil {
		if f, ok, err := s.cache.Get(ctx, ticker); err == nil && ok {
			return f, nil
		} else if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("fundamentals cache read failed")
		}
	}

	profile, err := s.quotes.CompanyProfile(ctx, ticker)
	if err != nil {
		return market.Fundamentals{}, err
	}
	f := market.Fundamentals{
		Ticker:         ticker,
		MarketCap:      profile.MktCap,
		Sector:         profile.Sector,
		Description:    profile.Description,
		ApproxLargeCap: profile.MktCap > largeCapFloor,
	}
	if q, err := s.quotes.FullQuote(ctx, ticker); err == nil {
		f.PERatio = q.PE
	} else {
		log.Warn().Err(err).Str("ticker", ticker).Msg("quote for pe unavailable")
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, f); err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("fundamentals cache write failed")
		}
	}
	return f, nil
}

// RecentNews maps the ticker's RSS feed into news items, keeping at most
// maxHeadlines entries published within the lookback window. Undated entries
// count as recent.
func (s *Source) RecentNews(ctx context.Context, ticker string, lookback time.Duration) ([]market.NewsItem, error) {
	headlines, err := s.history.Headlines(ctx, ticker)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-lookback)
	items := make([]market.NewsItem, 0, len(headlines))
	for _, h := range headlines {
		if !h.PublishedAt.IsZero() && h.PublishedAt.Before(cutoff) {
			continue
		}
		items = append(items, market.NewsItem{
			Ticker:      ticker,
			Headline:    h.Title,
			Body:        h.Description,
			PublishedAt: h.PublishedAt,
		})
		if len(items) == maxHeadlines {
			break
		}
	}
	return items, nil
}
