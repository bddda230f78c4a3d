package app

import (
	"database/sql"

	alertApp "stock-scout/internal/application/alert"
	"stock-scout/internal/application/rank"
	"stock-scout/internal/application/scan"
	"stock-scout/internal/domain/sentiment"
	"stock-scout/internal/domain/signal"
	"stock-scout/internal/infra/memory"
	authinfra "stock-scout/internal/infrastructure/auth"
	"stock-scout/internal/infrastructure/config"
	"stock-scout/internal/infrastructure/external/fmp"
	"stock-scout/internal/infrastructure/external/yahoo"
	"stock-scout/internal/infrastructure/marketdata"
	"stock-scout/internal/infrastructure/notify"
	"stock-scout/internal/infrastructure/persistence/postgres"
)

// Deps are the wired application components shared by the binaries.
type Deps struct {
	Pipeline *scan.Pipeline
	Store    *memory.Store
	Tokens   *authinfra.TokenManager
	Hasher   authinfra.BcryptHasher
}

// Build wires external clients, stores and the scan pipeline. The
// in-memory store always exists: it records the latest run for the API even
// when Postgres backs the alert history and cache.
func Build(cfg config.Config, pool *sql.DB) Deps {
	store := memory.NewStore(cfg.Market.FundamentalsTTL)

	var history alertApp.HistoryStore = store
	var cache marketdata.FundamentalsCache = store
	if pool != nil {
		history = postgres.NewAlertHistoryRepo(pool)
		cache = postgres.NewFundamentalsCacheRepo(pool, cfg.Market.FundamentalsTTL)
	}

	fmpClient := fmp.NewClient(cfg.Market.FMPAPIKey, cfg.Market.FMPBaseURL, cfg.Market.RequestsPerSecond)
	yahooClient := yahoo.NewClient(cfg.Market.YahooBaseURL, cfg.Market.YahooRSSBaseURL, cfg.Market.RequestsPerSecond)
	source := marketdata.NewSource(fmpClient, yahooClient, cache)

	ranker := rank.NewRanker(source, source, sentiment.NewScorer(), rank.Options{
		Weights:         cfg.Rank.Weights,
		Concurrency:     cfg.Rank.Concurrency,
		SourceTimeout:   cfg.Rank.SourceTimeout,
		NewsLookback:    cfg.Rank.NewsLookback,
		FallbackTickers: cfg.Rank.FallbackTickers,
	})
	classifier := signal.NewClassifier(cfg.Signal)

	var notifiers []alertApp.Notifier
	if cfg.Alert.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(
			cfg.Alert.Email.Host, cfg.Alert.Email.Port,
			cfg.Alert.Email.Username, cfg.Alert.Email.Password,
			cfg.Alert.Email.From, cfg.Alert.Email.To))
	}
	if cfg.Alert.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegramNotifier(
			cfg.Alert.Telegram.Token, cfg.Alert.Telegram.ChatID))
	}
	engine := alertApp.NewEngine(history, cfg.Alert.Cooldown, notifiers...)

	pipeline := scan.NewPipeline(ranker, classifier, engine, store,
		cfg.Rank.TopNInitial, cfg.Rank.TopNFinal)

	return Deps{
		Pipeline: pipeline,
		Store:    store,
		Tokens:   authinfra.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Hasher:   authinfra.BcryptHasher{},
	}
}
