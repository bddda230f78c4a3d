package sentiment

import (
	"testing"
	"time"

	"stock-scout/internal/domain/market"
)

func news(headline, body string) market.NewsItem {
	return market.NewsItem{
		Ticker:      "TICKX",
		Headline:    headline,
		Body:        body,
		PublishedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestScore_EmptyInputIsAbsent(t *testing.T) {
	s := NewScorer()
	if _, ok := s.Score(nil); ok {
		t.Fatal("empty input must report absent, never a score")
	}
	if _, ok := s.Score([]market.NewsItem{}); ok {
		t.Fatal("empty slice must report absent")
	}
}

func TestScore_Polarity(t *testing.T) {
	s := NewScorer()

	pos, ok := s.Score([]market.NewsItem{
		news("Shares rally after earnings beat", "Analysts upgrade on strong growth."),
	})
	if !ok {
		t.Fatal("expected a score")
	}
	if pos.Mean <= 0 {
		t.Fatalf("expected positive score, got %f", pos.Mean)
	}
	if pos.Items != 1 {
		t.Fatalf("expected 1 item, got %d", pos.Items)
	}

	neg, ok := s.Score([]market.NewsItem{
		news("Stock plunges on fraud investigation", "Downgrade follows earnings miss."),
	})
	if !ok {
		t.Fatal("expected a score")
	}
	if neg.Mean >= 0 {
		t.Fatalf("expected negative score, got %f", neg.Mean)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := NewScorer()
	items := []market.NewsItem{
		news("Rally and recovery, but a lawsuit warning remains", "Mixed picture."),
		news("Record high close", "Strong buy interest with http://example.com/link noise."),
	}
	first, ok := s.Score(items)
	if !ok {
		t.Fatal("expected a score")
	}
	for i := 0; i < 10; i++ {
		again, ok := s.Score(items)
		if !ok || again != first {
			t.Fatalf("score not deterministic: run %d got %+v want %+v", i, again, first)
		}
	}
}

func TestScore_BoundsAndMean(t *testing.T) {
	s := NewScorer()
	got, ok := s.Score([]market.NewsItem{
		news("rally surge breakout bullish upgrade", ""), // strongly positive
		news("no lexicon words here at all", ""),         // neutral item
	})
	if !ok {
		t.Fatal("expected a score")
	}
	if got.Mean < -1 || got.Mean > 1 {
		t.Fatalf("score out of range: %f", got.Mean)
	}
	// Mean over a +1 item and a 0 item is 0.5.
	if got.Mean != 0.5 {
		t.Fatalf("expected mean 0.5, got %f", got.Mean)
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("Breaking! Stock SOARS 20% https://news.example.com/a?b=c ...")
	if got != "breaking stock soars 20" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}
