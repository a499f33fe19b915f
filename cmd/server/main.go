package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/web3-frozen/wallet-risk/internal/analysis"
	"github.com/web3-frozen/wallet-risk/internal/cache"
	"github.com/web3-frozen/wallet-risk/internal/config"
	"github.com/web3-frozen/wallet-risk/internal/handler"
	"github.com/web3-frozen/wallet-risk/internal/middleware"
	"github.com/web3-frozen/wallet-risk/internal/narrative"
	"github.com/web3-frozen/wallet-risk/internal/provider"
	"github.com/web3-frozen/wallet-risk/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.UnleashAPIKey == "" {
		logger.Error("UNLEASH_API_KEY is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis report cache (retry up to 30s for ExternalSecret to sync)
	var reportCache *cache.Cache
	for i := 0; i < 6; i++ {
		reportCache, err = cache.New(cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTL, logger)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Error("failed to connect to redis after retries", "error", err)
		os.Exit(1)
	}
	defer reportCache.Close()
	logger.Info("redis connected for report cache", "ttl", cfg.CacheTTL.String())

	// Upstream providers
	client := provider.NewClient(cfg.UnleashBaseURL, cfg.UnleashAPIKey, cfg.ProviderTimeout, logger)
	unleash := provider.NewUnleash(client)

	aggregator := analysis.NewAggregator(cfg.ProviderTimeout, logger)
	for _, ad := range unleash.Adapters() {
		aggregator.Register(ad)
	}

	// Narrative generator is optional; the templated fallback covers it.
	var narrativeSource analysis.NarrativeSource
	if cfg.NarrativeURL != "" {
		narrativeSource = narrative.NewClient(cfg.NarrativeURL)
		logger.Info("narrative service configured", "url", cfg.NarrativeURL)
	} else {
		logger.Info("no narrative service configured, using templated reports")
	}

	analyzer := analysis.NewAnalyzer(aggregator, narrativeSource, logger)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db, reportCache))

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", handler.Analyze(reportCache, analyzer, db, logger))
		r.Get("/analyses/recent", handler.RecentAnalyses(db))
		r.Get("/chains", handler.Chains())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
