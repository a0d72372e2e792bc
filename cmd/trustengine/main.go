// TrustEngine - Multi-dimensional trust assessment for people, not just transactions.
// Copyright (c) 2025 ChittyOS
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chittyos/trustengine/internal/activity"
	"github.com/chittyos/trustengine/internal/analytics"
	"github.com/chittyos/trustengine/internal/api"
	"github.com/chittyos/trustengine/internal/bus"
	"github.com/chittyos/trustengine/internal/cache"
	"github.com/chittyos/trustengine/internal/domain"
	"github.com/chittyos/trustengine/internal/repository"
	"github.com/chittyos/trustengine/internal/trust"
	"github.com/chittyos/trustengine/internal/watch"
	"github.com/chittyos/trustengine/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("TRUSTENGINE_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting trustengine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("TRUSTENGINE_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Activity Service
	activitySvc := activity.NewService(repo, cacheImpl)
	slog.Info("activity service initialized")

	// Initialize Watch Engine with activity getter
	watches, err := watch.NewEngine(activitySvc.GetActivityGetter(), 100)
	if err != nil {
		slog.Error("failed to initialize watch engine", "error", err)
		os.Exit(1)
	}

	// Load watches from database (no hardcoded defaults - configure via API)
	if err := loadWatchesFromDatabase(ctx, repo, watches); err != nil {
		slog.Error("failed to load watches", "error", err)
		os.Exit(1)
	}
	slog.Info("watch engine initialized", "watch_count", watches.WatchCount())

	// Initialize Trust Engine and Analyzer
	engine := trust.NewEngine()
	analyzer := analytics.NewAnalyzer()
	slog.Info("trust engine initialized")

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("TRUSTENGINE_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, cacheImpl, engine, watches)

		// Get tenant IDs to process (from environment or default)
		tenantIDs := []string{}
		if envTenants := os.Getenv("TRUSTENGINE_TENANTS"); envTenants != "" {
			tenantIDs = strings.Split(envTenants, ",")
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, analyzer, watches, activitySvc, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("trustengine is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("trustengine shutdown complete")
}

// GlobalTenantID is used for watches that apply to all tenants.
const GlobalTenantID = "*"

// loadWatchesFromDatabase loads watch configs from the database into
// the engine. All watches are configured via POST /watches - no
// hardcoded defaults.
func loadWatchesFromDatabase(ctx context.Context, repo domain.Repository, watches *watch.Engine) error {
	configs, err := repo.ListWatchConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list watches from database", "error", err)
		return nil // Start with empty watches - they can be added via API
	}

	if len(configs) > 0 {
		slog.Info("loading watches from database", "count", len(configs))
		return watches.LoadWatches(configs)
	}

	slog.Info("no watches in database - configure via POST /watches API")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              TRUSTENGINE                  ║")
	fmt.Println("  ║    Multi-Dimensional Trust Assessment     ║")
	fmt.Println("  ║       Trust is more than a number.        ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /assess                     - Assess inline entity + events")
	fmt.Println("    POST /entities                   - Register an entity")
	fmt.Println("    GET  /entities/{id}              - Get entity by ID")
	fmt.Println("    POST /entities/{id}/events       - Append trust events")
	fmt.Println("    POST /entities/{id}/assess       - Assess from stored records")
	fmt.Println("    GET  /entities/{id}/insights     - Trust insights")
	fmt.Println("    GET  /entities/{id}/patterns     - Behavioral patterns")
	fmt.Println("    GET  /entities/{id}/intervals    - Score confidence intervals")
	fmt.Println("    GET  /entities/{id}/activity     - Recent event count")
	fmt.Println("    GET  /watches                    - List watch rules")
	fmt.Println("    POST /watches                    - Create a watch rule")
	fmt.Println("    POST /watches/reload             - Hot-reload watches from database")
	fmt.Println("    GET  /health                     - Health check")
	fmt.Println()
}
