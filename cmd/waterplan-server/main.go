// Package main is the entry point for the waterplan planning API: a
// Connect RPC service fronting the orchestrator, backed by Postgres
// report storage and a precomputed-bundle cache.
//
// Usage:
//
//	waterplan-server
//
// Configuration loads with the standard priority (environment
// variables over config.yaml over built-in defaults); see
// pkg/config/loader.go.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watermesh/internal/api"
	internalcache "watermesh/internal/cache"
	"watermesh/internal/orchestrator"
	"watermesh/internal/precompute"
	"watermesh/internal/store"
	"watermesh/pkg/cache"
	"watermesh/pkg/config"
	"watermesh/pkg/database"
	"watermesh/pkg/domain"
	"watermesh/pkg/logger"
	"watermesh/pkg/metrics"
	"watermesh/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingProvider, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("tracing shutdown error", "error", err)
		}
	}()

	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		logger.Log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool(), cfg.Database, store.MigrationFS(), store.MigrationDir); err != nil {
		logger.Log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	reportStore := store.NewPostgresStore(db)
	defer reportStore.Close()

	bundleBackend, err := cache.New(cache.FromConfig(cfg.Cache))
	if err != nil {
		logger.Log.Error("failed to initialize bundle cache", "error", err)
		os.Exit(1)
	}
	defer bundleBackend.Close()

	bundleCache := internalcache.New(bundleBackend, time.Duration(cfg.Cache.TTLSec)*time.Second)
	orchestrator.PreCompute = func(g *domain.StreetGraph) (*precompute.Bundle, error) {
		return internalcache.Run(context.Background(), bundleCache, g)
	}

	orchCfg := orchestrator.Config{
		BudgetEUR:           cfg.Planning.BudgetEUR,
		Source:              cfg.Planning.Source,
		Resilience:          cfg.Planning.Resilience == config.ResilienceK2,
		HydraulicCheck:      cfg.Planning.HydraulicCheck,
		ResilienceBudgetEUR: cfg.Planning.BudgetEUR,
		RNGSeed:             cfg.Planning.RNGSeed,
		MonteCarloReps:      cfg.Planning.MonteCarloReps,
		FailureRatePct:      cfg.Planning.FailureRate,
	}
	orchCfg.SpeedBand.Min = cfg.Planning.SpeedBand.Min
	orchCfg.SpeedBand.Max = cfg.Planning.SpeedBand.Max
	orchCfg.SpeedBand.RelaxationMin = cfg.Planning.SpeedBand.RelaxationMin
	orchCfg.SpeedBand.RelaxationStep = cfg.Planning.SpeedBand.RelaxationStep

	svc := api.NewPlanningService(orchCfg, reportStore)
	server := api.NewServer(cfg.API, cfg.Auth, svc)

	go func() {
		logger.Log.Info("planning API listening", "port", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown error", "error", err)
	}
}
