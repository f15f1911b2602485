package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/config"
	dbRedis "github.com/paperbase/semsearch/internal/db/redis"
	"github.com/paperbase/semsearch/internal/domain"
	logpkg "github.com/paperbase/semsearch/internal/logger"
	"github.com/paperbase/semsearch/internal/metrics"
	"github.com/paperbase/semsearch/internal/provider/ollama"
	"github.com/paperbase/semsearch/internal/provider/openai"
	cacherepo "github.com/paperbase/semsearch/internal/repository/cache"
	documentrepo "github.com/paperbase/semsearch/internal/repository/document"
	"github.com/paperbase/semsearch/internal/repository/embcache"
	chiTransport "github.com/paperbase/semsearch/internal/transport/chi"
	healthuc "github.com/paperbase/semsearch/internal/usecase/health"
	"github.com/paperbase/semsearch/internal/usecase/orchestrator"
	pipelineuc "github.com/paperbase/semsearch/internal/usecase/pipeline"
	"github.com/paperbase/semsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting semsearch worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("providers", len(cfg.Providers)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register embedding metrics explicitly (no init())
	metrics.Register()

	// Provider chain — config order breaks priority ties.
	providers := make([]domain.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		providers = append(providers, buildProvider(pc, logger))
	}
	orch := orchestrator.New(providers, logger)

	// Embedder chain: orchestrator behind a content-hash cache.
	embedder := embcache.New(
		orch,
		store,
		time.Duration(cfg.Cache.EmbeddingTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal,
		logger,
	)

	docRepo := documentrepo.New(store)
	resultCache := cacherepo.New(store, logger)

	pipeSvc := pipelineuc.New(docRepo, embedder, resultCache, pipelineuc.Config{
		FillGapsDelay:   time.Duration(cfg.Pipeline.FillGapsDelaySec) * time.Second,
		RegenerateDelay: time.Duration(cfg.Pipeline.RegenerateDelaySec) * time.Second,
		ProviderTimeout: time.Duration(cfg.Pipeline.ProviderTimeoutSec) * time.Second,
	}, logger)

	healthSvc := healthuc.New(store, orch, resultCache)

	server := chiTransport.NewServer(pipeSvc, orch, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		runFillGapsWorker(workerCtx, docRepo, pipeSvc, cfg.Pipeline.IntervalSec, logger)
	}()

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Pipeline worker did not stop in time")
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider constructs one provider of the failover chain.
func buildProvider(pc config.ProviderConfig, logger *zap.Logger) domain.Provider {
	switch pc.Type {
	case "ollama":
		return ollama.New(ollama.Config{
			Name:       pc.Name,
			Priority:   pc.Priority,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Logger:     logger,
		})
	default:
		return openai.New(openai.Config{
			Name:       pc.Name,
			Priority:   pc.Priority,
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Logger:     logger,
		})
	}
}

// runFillGapsWorker periodically embeds documents that are still missing a
// vector. intervalSec <= 0 disables the worker.
func runFillGapsWorker(
	ctx context.Context,
	repo *documentrepo.Repo,
	pipe *pipelineuc.Service,
	intervalSec int,
	logger *zap.Logger,
) {
	if intervalSec <= 0 {
		logger.Info("Fill-gaps worker disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		owners, err := repo.ListOwners(ctx)
		if err != nil {
			logger.Warn("Fill-gaps worker: list owners failed", zap.Error(err))
			continue
		}

		for _, owner := range owners {
			if ctx.Err() != nil {
				return
			}
			report, err := pipe.FillGaps(ctx, owner)
			if err != nil {
				logger.Warn("Fill-gaps run failed",
					zap.String("owner_id", owner),
					zap.Error(err),
				)
				continue
			}
			if report.Succeeded+report.Failed > 0 {
				logger.Info("Fill-gaps run finished",
					zap.String("owner_id", owner),
					zap.Int("succeeded", report.Succeeded),
					zap.Int("failed", report.Failed),
					zap.Bool("aborted", report.Aborted),
				)
			}
		}
	}
}
