package memory

import (
	"context"
	"sync"
	"time"

	"stock-scout/internal/application/scan"
	"stock-scout/internal/domain/market"
	"stock-scout/internal/domain/signal"
)

// Store backs the alert history, fundamentals cache and run recorder when no
// database is configured. State lives for the process lifetime only, which
// means the alert cool-down resets on restart.
type Store struct {
	mu           sync.RWMutex
	alerts       map[string]time.Time
	fundamentals map[string]cacheEntry
	lastRun      *scan.RunResult
	ttl          time.Duration
	now          func() time.Time
}

type cacheEntry struct {
	value     market.Fundamentals
	fetchedAt time.Time
}

func NewStore(fundamentalsTTL time.Duration) *Store {
	if fundamentalsTTL <= 0 {
		fundamentalsTTL = 24 * time.Hour
	}
	return &Store{
		alerts:       make(map[string]time.Time),
		fundamentals: make(map[string]cacheEntry),
		ttl:          fundamentalsTTL,
		now:          time.Now,
	}
}

func alertKey(ticker string, label signal.Label) string {
	return ticker + "|" + string(label)
}

// HistoryStore impl

func (s *Store) LastAlert(_ context.Context, ticker string, label signal.Label) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.alerts[alertKey(ticker, label)]
	return at, ok, nil
}

func (s *Store) RecordAlert(_ context.Context, ticker string, label signal.Label, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alertKey(ticker, label)] = at
	return nil
}

// FundamentalsCache impl

func (s *Store) Get(_ context.Context, ticker string) (market.Fundamentals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.fundamentals[ticker]
	if !ok || s.now().Sub(entry.fetchedAt) > s.ttl {
		return market.Fundamentals{}, false, nil
	}
	return entry.value, true, nil
}

func (s *Store) Put(_ context.Context, f market.Fundamentals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fundamentals[f.Ticker] = cacheEntry{value: f, fetchedAt: s.now()}
	return nil
}

// RunRecorder impl

func (s *Store) SaveRun(result scan.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &result
}

// LastRun returns the most recent run result, ok=false before the first run.
func (s *Store) LastRun() (scan.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return scan.RunResult{}, false
	}
	return *s.lastRun, true
}
