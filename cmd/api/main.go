package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apiConfig "dcf_valuation/pkg/api/config"
	"dcf_valuation/pkg/api/middleware"
	"dcf_valuation/pkg/api/valuation"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	setupLogging(cfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server still starts without data; data endpoints then report the failure.
	var catalog valuation.Catalog
	if table, err := loadTable(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Error loading financial data")
	} else {
		catalog = table
	}
	defer store.Close()

	mux := http.NewServeMux()
	valuation.NewHandler(catalog, cfg.Assumptions()).Register(mux)
	mux.HandleFunc("/api/config", apiConfig.NewHandler(cfg).HandleConfig)

	mws := []middleware.Middleware{middleware.Recover, middleware.RequestID, middleware.Logger, middleware.CORS}
	if cfg.RateLimit.Enabled {
		mws = append(mws, middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst).Middleware)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           middleware.Chain(mux, mws...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("API server starting")
	log.Info().Msg("  - GET  /api/stocks")
	log.Info().Msg("  - POST /api/calculate")
	log.Info().Msg("  - GET  /api/report?stock=TICKER")
	log.Info().Msg("  - GET  /api/config")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

func loadTable(ctx context.Context, cfg *config.Config) (*store.Table, error) {
	if cfg.Data.UseDatabase {
		if err := store.InitDB(ctx); err != nil {
			return nil, err
		}
		return store.LoadPostgres(ctx, store.GetPool())
	}
	return store.LoadCSVFile(cfg.Data.CSVPath)
}

func setupLogging(sc config.ServerConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(sc.LogLevel)
	if err != nil || sc.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if sc.Environment != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
