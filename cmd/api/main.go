package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stock-scout/internal/app"
	"stock-scout/internal/infrastructure/config"
	"stock-scout/internal/infrastructure/db"
	"stock-scout/internal/infrastructure/scheduler"
	httpapi "stock-scout/internal/interface/http"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().Str("addr", cfg.HTTP.Addr).Msg("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Warn().Err(err).Msg("database connection failed, falling back to in-memory stores")
		pool = nil
	} else if pool == nil {
		log.Info().Msg("no DB_DSN provided; alert history and cache are in-memory")
	} else {
		defer pool.Close()
		log.Info().Msg("database connected")
	}

	deps := app.Build(cfg, pool)

	if cfg.Schedule.Enabled {
		sched := scheduler.New()
		if err := sched.Schedule(cfg.Schedule.Spec, "scan", func(ctx context.Context) {
			if _, err := deps.Pipeline.Run(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled scan failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Schedule.Spec).Msg("invalid schedule spec")
		}
		sched.Start()
		defer sched.Stop()
		log.Info().Str("spec", cfg.Schedule.Spec).Msg("scan schedule active")
	}

	srv := httpapi.NewServer(pool, deps.Pipeline, deps.Store, deps.Tokens,
		deps.Hasher, cfg.Auth.OperatorUser, cfg.Auth.OperatorPasswordHash, cfg.Auth.TokenTTL)

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
	if err := http.ListenAndServe(cfg.HTTP.Addr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
