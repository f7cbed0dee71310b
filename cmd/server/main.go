// Package main is the entrypoint for the DocMiner API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docminer/docminer/internal/api"
	"github.com/docminer/docminer/internal/api/handler"
	"github.com/docminer/docminer/internal/cache"
	"github.com/docminer/docminer/internal/config"
	"github.com/docminer/docminer/internal/corpus"
	"github.com/docminer/docminer/internal/entity"
	"github.com/docminer/docminer/internal/extract"
	"github.com/docminer/docminer/internal/jobs"
	"github.com/docminer/docminer/internal/pipeline"
	"github.com/docminer/docminer/internal/section"
	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "workers", cfg.Pipeline.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// 2. Job store: Postgres when configured, in-memory otherwise
	var jobStore store.Store
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		jobStore = store.NewPostgresStore(pool)
		slog.Info("using postgres job store")
	} else {
		jobStore = store.NewMemoryStore()
		slog.Info("using in-memory job store")
	}

	// 3. Status cache: Redis when configured, in-memory otherwise
	var statusCache cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		statusCache = redisCache
		slog.Info("redis connected")
	} else {
		statusCache = cache.NewMemoryCache()
	}

	// 4. Pipeline collaborators
	registry := extract.NewRegistry()
	executor := pipeline.NewExecutor(
		jobStore,
		statusCache,
		corpus.NewHTTPClient(cfg.Corpus.BaseURL, cfg.Corpus.Timeout),
		section.NewParagraphSectioner(registry),
		entity.NewDictExtractor(cfg.Storage.DictDir),
		registry,
		cfg.Storage.DictDir,
		cfg.Pipeline.StageTimeout,
	)

	// 5. Worker pool and job manager
	pool := worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	pool.Start(ctx)
	defer pool.Stop()
	manager := jobs.NewManager(jobStore, pool, executor, cfg.Storage.DataDir)

	// 6. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler:           handler.NewHealthHandler(jobStore, statusCache),
		UploadHandler:           handler.NewUploadHandler(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes),
		AnalyzeHandler:          handler.NewAnalyzeHandler(manager, cfg.Storage.UploadDir),
		PollJobHandler:          handler.NewPollJobHandler(manager),
		CancelJobHandler:        handler.NewCancelJobHandler(manager),
		DownloadHandler:         handler.NewDownloadHandler(manager),
		ListDictionariesHandler: handler.NewListDictionariesHandler(cfg.Storage.DictDir),
		ListSectionsHandler:     handler.NewListSectionsHandler(),
		ListEntitiesHandler:     handler.NewListEntitiesHandler(),
	}
	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
