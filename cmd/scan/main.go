package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stock-scout/internal/app"
	"stock-scout/internal/infrastructure/config"
	"stock-scout/internal/infrastructure/db"
)

// One-shot scan: run the full pipeline once and exit. Meant for external
// schedulers (cron, CI) and for trying configuration changes by hand.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfgPath := flag.String("config", "config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "run deadline")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Warn().Err(err).Msg("database connection failed, falling back to in-memory stores")
		pool = nil
	} else if pool != nil {
		defer pool.Close()
	}

	deps := app.Build(cfg, pool)
	result, err := deps.Pipeline.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}

	log.Info().
		Int("candidates", len(result.Candidates)).
		Int("alerts_sent", result.Alerts.Sent).
		Bool("degraded", result.Degraded).
		Msg("scan complete")
}
