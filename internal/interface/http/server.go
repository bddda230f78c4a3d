package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	authinfra "stock-scout/internal/infrastructure/auth"

	"stock-scout/internal/application/scan"
)

// ScanRunner triggers one full pipeline pass.
type ScanRunner interface {
	Run(ctx context.Context) (scan.RunResult, error)
}

// RunReader exposes the most recent completed run.
type RunReader interface {
	LastRun() (scan.RunResult, bool)
}

// PasswordComparer checks a plain password against the configured hash.
type PasswordComparer interface {
	Compare(hashed, plain string) bool
}

// Server is the operator-facing HTTP API: login, manual scan trigger and the
// latest run's signals.
type Server struct {
	db           *sql.DB
	runner       ScanRunner
	runs         RunReader
	tokens       *authinfra.TokenManager
	hasher       PasswordComparer
	operatorUser string
	operatorHash string
	tokenTTL     time.Duration
}

func NewServer(db *sql.DB, runner ScanRunner, runs RunReader, tokens *authinfra.TokenManager,
	hasher PasswordComparer, operatorUser, operatorHash string, tokenTTL time.Duration) *Server {
	return &Server{
		db:           db,
		runner:       runner,
		runs:         runs,
		tokens:       tokens,
		hasher:       hasher,
		operatorUser: operatorUser,
		operatorHash: operatorHash,
		tokenTTL:     tokenTTL,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.Handle("/api/admin/scan", s.withAuth(s.handleScan))
	mux.HandleFunc("/api/signals", s.handleSignals)
	return withRequestLog(mux)
}
