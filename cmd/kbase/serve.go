package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/auth"
	"github.com/kailas-cloud/kbase/internal/config"
	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/domain"
	logpkg "github.com/kailas-cloud/kbase/internal/logger"
	"github.com/kailas-cloud/kbase/internal/metrics"
	"github.com/kailas-cloud/kbase/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/kbase/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/kbase/internal/transport/openai"
	aiuc "github.com/kailas-cloud/kbase/internal/usecase/ai"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
	enrichmentuc "github.com/kailas-cloud/kbase/internal/usecase/enrichment"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
	"github.com/kailas-cloud/kbase/internal/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", false, "apply the Postgres schema before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kbase API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	migrate, _ := cmd.Flags().GetBool("migrate")
	store, err := openBackend(ctx, cfg, migrate, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// Register metrics explicitly (no init())
	metrics.Register()

	// Composition root: provider -> cache -> instrumented -> instruction (outermost,
	// so cache keys include the prefix)
	aiCfg := &openaiTransport.Config{
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		Provider:       cfg.AI.Provider,
		ChatModel:      cfg.AI.ChatModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
		Dimensions:     cfg.AI.Dimensions,
		MaxTokens:      cfg.AI.MaxTokens,
		Temperature:    cfg.AI.Temperature,
	}
	baseEmbedder := openaiTransport.NewEmbedder(aiCfg)
	embedder := buildEmbedder(baseEmbedder, cfg.AI, store.kv, cfg.Storage.KeyPrefix, logger)
	generator := aiuc.NewInstrumentedGenerator(
		openaiTransport.NewGenerator(aiCfg), cfg.AI.Provider, cfg.AI.ChatModel,
	)

	aiTimeout := time.Duration(cfg.AI.TimeoutSec) * time.Second
	docGateway := aiuc.New(generator, domain.NewInstructionEmbedder(embedder, cfg.AI.DocumentInstruction),
		aiTimeout, metrics.EmbeddingFallbackTotal, logger)
	queryGateway := aiuc.New(generator, domain.NewInstructionEmbedder(embedder, cfg.AI.QueryInstruction),
		aiTimeout, nil, logger)
	logger.Info("AI gateway created",
		zap.String("provider", cfg.AI.Provider),
		zap.String("chat_model", cfg.AI.ChatModel),
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
	)

	docSvc := documentuc.New(store.repo, docGateway).
		WithPagination(cfg.Documents.DefaultPageSize, cfg.Documents.MaxPageSize).
		WithMaxRetries(cfg.Documents.MaxUpdateRetries)
	searchSvc := searchuc.New(store.repo, queryGateway)
	enrichSvc := enrichmentuc.New(docGateway, docSvc, store.repo)

	// Pass a nil interface, not a typed nil pointer, when the probe is off.
	var aiChecker healthuc.ProviderChecker
	if cfg.AI.HealthCheck {
		aiChecker = baseEmbedder
	}
	healthSvc := healthuc.New(store.pinger, aiChecker, 0)

	verifier, err := auth.NewVerifier(ctx, auth.Config{
		Secret:  cfg.Auth.JWTSecret,
		JWKSURL: cfg.Auth.JWKSURL,
		Issuer:  cfg.Auth.Issuer,
	}, logger)
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	server := chiTransport.NewServer(docSvc, searchSvc, enrichSvc, healthSvc, logger)

	r := newRouter(logger, cfg.CORS, verifier, server.Routes)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The cache needs a key-value store and is skipped without one.
func buildEmbedder(
	base domain.Embedder,
	cfg config.AIConfig,
	kv db.KVStore,
	keyPrefix string,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if kv != nil && cfg.CacheTTLSec > 0 {
		embedder = embcache.New(base, kv, embcache.Config{
			KeyPrefix: keyPrefix,
			Model:     cfg.EmbeddingModel,
			TTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}
	return aiuc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.EmbeddingModel)
}

// newRouter assembles the middleware chain. Metrics sit outside auth so
// rejected requests are counted too.
func newRouter(
	logger *zap.Logger,
	corsCfg config.CORSConfig,
	verifier chiTransport.TokenVerifier,
	routes func(chi.Router),
) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(newCORS(corsCfg).Handler)
	r.Use(metrics.Middleware())
	r.Use(chiTransport.JWTAuthMiddleware(verifier))
	routes(r)
	return r
}

func newCORS(cfg config.CORSConfig) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
