package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	alertApp "stock-scout/internal/application/alert"
	"stock-scout/internal/application/rank"
	alertDomain "stock-scout/internal/domain/alert"
	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/sentiment"
	"stock-scout/internal/domain/signal"
)

type fakeSource struct {
	universe     []market.QuoteSnapshot
	universeErr  error
	quotes       map[string]market.QuoteSnapshot
	fundamentals map[string]market.Fundamentals
}

func (f *fakeSource) LosersUniverse(ctx context.Context, limit int) ([]market.QuoteSnapshot, error) {
	return f.universe, f.universeErr
}

func (f *fakeSource) Quote(ctx context.Context, ticker string) (market.QuoteSnapshot, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return market.QuoteSnapshot{}, errors.New("no quote")
	}
	return q, nil
}

func (f *fakeSource) Fundamentals(ctx context.Context, ticker string) (market.Fundamentals, error) {
	fd, ok := f.fundamentals[ticker]
	if !ok {
		return market.Fundamentals{}, errors.New("no fundamentals")
	}
	return fd, nil
}

type fakeNews struct {
	items map[string][]market.NewsItem
}

func (f fakeNews) RecentNews(ctx context.Context, ticker string, lookback time.Duration) ([]market.NewsItem, error) {
	return f.items[ticker], nil
}

type stubScorer struct {
	mean float64
}

func (s stubScorer) Score(items []market.NewsItem) (sentiment.Score, bool) {
	if len(items) == 0 {
		return sentiment.Score{}, false
	}
	return sentiment.Score{Mean: s.mean, Items: len(items)}, true
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []alertDomain.Notification
}

func (r *recordingNotifier) Send(_ context.Context, n alertDomain.Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	return nil
}

type memoryRecorder struct {
	last *RunResult
}

func (m *memoryRecorder) SaveRun(result RunResult) { m.last = &result }

func tickxUniverse() []market.QuoteSnapshot {
	return []market.QuoteSnapshot{{
		Ticker:        "TICKX",
		Price:         10,
		PercentChange: -8,
		Volume:        1_000_000,
		DailyHistory:  []float64{11, 10.5, 10},
		Timestamp:     time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC),
	}}
}

func tickxFundamentals() map[string]market.Fundamentals {
	peRatio := 12.0
	return map[string]market.Fundamentals{
		"TICKX": {Ticker: "TICKX", MarketCap: 50e9, PERatio: &peRatio, ApproxLargeCap: true},
	}
}

func newPipeline(src *fakeSource, news fakeNews, scorer rank.SentimentScorer, notifier alertApp.Notifier, recorder RunRecorder) *Pipeline {
	ranker := rank.NewRanker(src, news, scorer, rank.Options{
		FallbackTickers: []string{"DZSI", "BBWI"},
	})
	classifier := signal.NewClassifier(signal.DefaultThresholds())
	engine := alertApp.NewEngine(nil, 0, notifier)
	return NewPipeline(ranker, classifier, engine, recorder, 10, 5)
}

func TestRun_EndToEnd_BuySignalAlerts(t *testing.T) {
	src := &fakeSource{universe: tickxUniverse(), fundamentals: tickxFundamentals()}
	news := fakeNews{items: map[string][]market.NewsItem{
		"TICKX": {{Ticker: "TICKX", Headline: "rebound expected"}},
	}}
	notifier := &recordingNotifier{}
	recorder := &memoryRecorder{}
	p := newPipeline(src, news, stubScorer{mean: 0.7}, notifier, recorder)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].Ticker != "TICKX" {
		t.Fatalf("expected TICKX candidate, got %+v", result.Candidates)
	}
	if result.Signals[0].Label != signal.LabelBuyMomentumOversold {
		t.Fatalf("expected buy signal, got %s", result.Signals[0].Label)
	}
	if !result.Decisions[0].ShouldAlert {
		t.Fatal("buy signal must alert")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if recorder.last == nil || recorder.last.Alerts.Sent != 1 {
		t.Fatal("run result not recorded")
	}
}

func TestRun_EndToEnd_NoNewsMeansNeutral(t *testing.T) {
	src := &fakeSource{universe: tickxUniverse(), fundamentals: tickxFundamentals()}
	notifier := &recordingNotifier{}
	p := newPipeline(src, fakeNews{}, stubScorer{mean: 0.7}, notifier, nil)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Signals[0].Label != signal.LabelNeutral {
		t.Fatalf("absent sentiment must yield Neutral, got %s", result.Signals[0].Label)
	}
	if result.Decisions[0].ShouldAlert {
		t.Fatal("neutral signal must not alert")
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.sent))
	}
	if result.Candidates[0].Sentiment != nil {
		t.Fatal("no news must leave sentiment absent, not zero")
	}
}

func TestRun_FallbackIsDegradedNeverSilent(t *testing.T) {
	src := &fakeSource{
		universeErr: errors.New("provider down"),
		quotes: map[string]market.QuoteSnapshot{
			"DZSI": {Ticker: "DZSI", Price: 5, PercentChange: -2, DailyHistory: []float64{5.2, 5.1, 5}, Timestamp: time.Now()},
			"BBWI": {Ticker: "BBWI", Price: 30, PercentChange: 1, DailyHistory: []float64{30, 29, 30}, Timestamp: time.Now()},
		},
		fundamentals: map[string]market.Fundamentals{},
	}
	p := newPipeline(src, fakeNews{}, stubScorer{}, &recordingNotifier{}, nil)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("fallback run must complete: %v", err)
	}
	if !result.Degraded {
		t.Fatal("fallback run must be marked degraded")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("fallback run must never return an empty candidate set silently")
	}
}
