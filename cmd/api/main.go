package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anlaklab/simple-luna-sub003/internal/ai"
	"github.com/anlaklab/simple-luna-sub003/internal/config"
	"github.com/anlaklab/simple-luna-sub003/internal/engine"
	"github.com/anlaklab/simple-luna-sub003/internal/enricher"
	"github.com/anlaklab/simple-luna-sub003/internal/extractor"
	httpserver "github.com/anlaklab/simple-luna-sub003/internal/http"
	"github.com/anlaklab/simple-luna-sub003/internal/http/handlers"
	"github.com/anlaklab/simple-luna-sub003/internal/jobstore"
	"github.com/anlaklab/simple-luna-sub003/internal/orchestrator"
	"github.com/anlaklab/simple-luna-sub003/internal/repository"
	"github.com/anlaklab/simple-luna-sub003/internal/schema"
	"github.com/anlaklab/simple-luna-sub003/internal/storage"
	"github.com/anlaklab/simple-luna-sub003/internal/worker"
)

func main() {
	logger := log.New(os.Stdout, "[luna] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, repoCloser := setupRepository(ctx, cfg, logger)
	defer repoCloser()

	store, storeCloser := setupJobStore(ctx, cfg, logger)
	defer storeCloser()

	artifacts, err := storage.NewLocalStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatalf("failed to initialize artifact storage: %v", err)
	}

	engineClient := engine.NewClient(engine.ClientConfig{
		BaseURL:    cfg.EngineBaseURL,
		Timeout:    time.Duration(cfg.EngineTimeoutMS) * time.Millisecond,
		MaxRetries: cfg.EngineMaxRetries,
	})

	builder := schema.NewBuilder(logger)
	validator := schema.NewValidator(logger)
	processor := worker.NewProcessor(
		engineClient,
		extractor.New(logger),
		enricher.New(logger),
		builder,
		validator,
		artifacts,
		logger,
	)

	orch := orchestrator.New(orchestrator.Config{
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		DispatchInterval:  time.Duration(cfg.DispatchIntervalMS) * time.Millisecond,
		DefaultJobTimeout: time.Duration(cfg.JobTimeoutMS) * time.Millisecond,
	}, repo, store, processor, logger)

	chatClient := ai.NewClient(ai.ClientConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    time.Duration(cfg.OpenAITimeoutMS) * time.Millisecond,
		MaxRetries: cfg.OpenAIMaxRetries,
	})

	api := handlers.NewAPI(orch, repo, validator, chatClient, logger)
	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.WorkerEnabled {
		go orch.Start(ctx)
		logger.Printf("dispatcher started max_concurrent=%d", cfg.MaxConcurrentJobs)
	} else {
		logger.Printf("dispatcher disabled by configuration")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupRepository(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.JobsRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repository")
		return repository.NewMemoryJobsRepository(), func() {}
	}

	pgRepo, err := repository.NewPostgresJobsRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres repository, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository(), func() {}
	}
	logger.Printf("postgres repository initialized")
	return pgRepo, func() {
		pgRepo.Close()
	}
}

func setupJobStore(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (jobstore.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using in-memory payload store")
		return jobstore.NewMemoryStore(), func() {}
	}

	redisStore, err := jobstore.NewRedisStore(ctx, jobstore.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisKeyPrefix,
		TTL:       time.Duration(cfg.RedisPayloadTTLMS) * time.Millisecond,
	})
	if err != nil {
		logger.Printf("failed to initialize redis payload store, fallback to memory: %v", err)
		return jobstore.NewMemoryStore(), func() {}
	}
	logger.Printf("redis payload store initialized")
	return redisStore, func() {
		_ = redisStore.Close()
	}
}
