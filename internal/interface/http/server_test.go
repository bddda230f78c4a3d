package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock-scout/internal/application/scan"
	alertDomain "stock-scout/internal/domain/alert"
	"stock-scout/internal/domain/signal"
	authinfra "stock-scout/internal/infrastructure/auth"
)

type fakeRunner struct {
	result scan.RunResult
	err    error
	runs   int
}

func (f *fakeRunner) Run(_ context.Context) (scan.RunResult, error) {
	f.runs++
	return f.result, f.err
}

type fakeRuns struct {
	run scan.RunResult
	ok  bool
}

func (f *fakeRuns) LastRun() (scan.RunResult, bool) { return f.run, f.ok }

func newTestServer(t *testing.T, runner *fakeRunner, runs *fakeRuns) *Server {
	t.Helper()
	hash, err := authinfra.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	tokens := authinfra.NewTokenManager("test-secret", time.Hour)
	return NewServer(nil, runner, runs, tokens, authinfra.BcryptHasher{}, "operator", hash, time.Hour)
}

func login(t *testing.T, handler http.Handler, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeRuns{})
	handler := srv.Routes()

	rec := login(t, handler, "operator", "password123")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if rec := login(t, handler, "operator", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password must be 401, got %d", rec.Code)
	}
	if rec := login(t, handler, "intruder", "password123"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user must be 401, got %d", rec.Code)
	}
}

func TestScan_RequiresAuth(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, &fakeRuns{})
	handler := srv.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if runner.runs != 0 {
		t.Fatal("unauthenticated request must not trigger a scan")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestScan_TriggersRun(t *testing.T) {
	runner := &fakeRunner{result: scan.RunResult{
		Degraded:   true,
		Candidates: []signal.Candidate{{Ticker: "TICKX"}},
	}}
	srv := newTestServer(t, runner, &fakeRuns{})
	handler := srv.Routes()

	loginRec := login(t, handler, "operator", "password123")
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(loginRec.Body.Bytes(), &auth); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runner.runs != 1 {
		t.Fatalf("expected 1 run, got %d", runner.runs)
	}
	var resp struct {
		Degraded   bool `json:"degraded"`
		Candidates int  `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Degraded || resp.Candidates != 1 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
}

func TestScan_RunFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no universe")}
	srv := newTestServer(t, runner, &fakeRuns{})
	handler := srv.Routes()

	loginRec := login(t, handler, "operator", "password123")
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(loginRec.Body.Bytes(), &auth)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for failed run, got %d", rec.Code)
	}
}

func TestSignals(t *testing.T) {
	runs := &fakeRuns{}
	srv := newTestServer(t, &fakeRunner{}, runs)
	handler := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/signals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any run, got %d", rec.Code)
	}

	runs.ok = true
	runs.run = scan.RunResult{
		StartedAt:  time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 2, 21, 1, 0, 0, time.UTC),
		Candidates: []signal.Candidate{{Ticker: "TICKX", RankScore: 0.42}},
		Signals: []signal.TradingSignal{
			{Ticker: "TICKX", Label: signal.LabelBuyMomentumOversold, Strength: 0.8},
		},
		Decisions: []alertDomain.Decision{
			{Ticker: "TICKX", ShouldAlert: true, Reason: "oversold with positive sentiment (strength 0.80)"},
		},
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Items []struct {
			Ticker      string  `json:"ticker"`
			Label       string  `json:"label"`
			RankScore   float64 `json:"rank_score"`
			ShouldAlert bool    `json:"should_alert"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Label != "buy_momentum_oversold" || !resp.Items[0].ShouldAlert {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeRuns{})
	handler := srv.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Storage != "memory" {
		t.Fatalf("unexpected health: %+v", resp)
	}
}
