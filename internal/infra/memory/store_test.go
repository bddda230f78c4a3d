package memory

import (
	"context"
	"testing"
	"time"

	"stock-scout/internal/application/scan"
	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/signal"
)

func TestStore_AlertHistory(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	if _, ok, _ := s.LastAlert(ctx, "TICKX", signal.LabelBuyMomentumOversold); ok {
		t.Fatal("expected no history for fresh store")
	}

	at := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	if err := s.RecordAlert(ctx, "TICKX", signal.LabelBuyMomentumOversold, at); err != nil {
		t.Fatalf("RecordAlert failed: %v", err)
	}

	got, ok, err := s.LastAlert(ctx, "TICKX", signal.LabelBuyMomentumOversold)
	if err != nil || !ok || !got.Equal(at) {
		t.Fatalf("unexpected result: %v %v %v", got, ok, err)
	}

	// Different label on the same ticker is a separate entry.
	if _, ok, _ := s.LastAlert(ctx, "TICKX", signal.LabelSellMomentumOverbought); ok {
		t.Fatal("labels must not share history entries")
	}
}

func TestStore_FundamentalsCacheTTL(t *testing.T) {
	s := NewStore(24 * time.Hour)
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, market.Fundamentals{Ticker: "TICKX", MarketCap: 50e9}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "TICKX"); !ok {
		t.Fatal("expected fresh entry to hit")
	}

	now = now.Add(25 * time.Hour)
	if _, ok, _ := s.Get(ctx, "TICKX"); ok {
		t.Fatal("stale entry must read as a miss")
	}
}

func TestStore_LastRun(t *testing.T) {
	s := NewStore(0)

	if _, ok := s.LastRun(); ok {
		t.Fatal("expected no run before the first save")
	}

	s.SaveRun(scan.RunResult{Degraded: true})
	s.SaveRun(scan.RunResult{Degraded: false})

	run, ok := s.LastRun()
	if !ok || run.Degraded {
		t.Fatalf("expected latest run, got %+v ok=%v", run, ok)
	}
}
