package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/config"
	dbRedis "github.com/kailas-cloud/omnisearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/omnisearch/internal/logger"
	"github.com/kailas-cloud/omnisearch/internal/metrics"
	cacherepo "github.com/kailas-cloud/omnisearch/internal/repository/cache"
	searchrepo "github.com/kailas-cloud/omnisearch/internal/repository/search"
	tenantrepo "github.com/kailas-cloud/omnisearch/internal/repository/tenant"
	chiTransport "github.com/kailas-cloud/omnisearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/omnisearch/internal/transport/openai"
	executoruc "github.com/kailas-cloud/omnisearch/internal/usecase/executor"
	fusionuc "github.com/kailas-cloud/omnisearch/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/omnisearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/omnisearch/internal/usecase/query"
	registryuc "github.com/kailas-cloud/omnisearch/internal/usecase/registry"
	routinguc "github.com/kailas-cloud/omnisearch/internal/usecase/routing"
	searchuc "github.com/kailas-cloud/omnisearch/internal/usecase/search"
	"github.com/kailas-cloud/omnisearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting omnisearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Repositories
	tenantRepo := tenantrepo.New(store, cfg.Storage.KeyPrefix)
	searchRepo := searchrepo.New(store)

	// Tenant registry with periodic snapshot refresh
	registry := registryuc.New(
		tenantRepo,
		cfg.Registry.SnapshotSize,
		time.Duration(cfg.Registry.StalenessSec)*time.Second,
		time.Duration(cfg.Registry.RefreshEverySec)*time.Second,
		logger,
	)
	if err := registry.Refresh(ctx); err != nil {
		logger.Warn("Initial tenant snapshot failed", zap.Error(err))
	}
	go registry.Run(ctx)

	router := routinguc.New(cfg.Marketplace.Indices)

	// Embedding provider is optional; without one, text search stays lexical
	// and image search accepts precomputed vectors only.
	var embedder queryuc.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Provider != "" {
		emb := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embedder = emb
		embeddingChecker = emb
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	planner := queryuc.NewBuilders(embedder, queryuc.Config{
		DefaultK:           cfg.Search.DefaultK,
		DefaultBoosts:      cfg.Search.Boosts,
		SemanticText:       cfg.Search.SemanticText,
		VectorDim:          cfg.Embedding.Dimensions,
		FacetLimit:         cfg.Search.FacetLimit,
		MarketplaceVectors: cfg.Marketplace.VectorEnabled,
	}, logger)

	exec := executoruc.New(
		searchRepo,
		cfg.Executor.Concurrency,
		time.Duration(cfg.Executor.QueryTimeoutMs)*time.Millisecond,
		logger,
	)

	fuser := fusionuc.New(fusionuc.Config{
		Weights: fusionuc.WeightsFromConfig(
			cfg.Fusion.TextWeight,
			cfg.Fusion.AttributeWeight,
			cfg.Fusion.SpecificationWeight,
			cfg.Fusion.ImageWeight,
		),
		SemanticWeight: cfg.Fusion.SemanticWeight,
	})

	var cache searchuc.ResultCache
	if cfg.Cache.Enabled {
		cache = cacherepo.New(store, cfg.Storage.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second)
		logger.Info("Result cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	}

	searchSvc := searchuc.New(registry, router, planner, exec, fuser, cache, logger)
	healthSvc := healthuc.New(store, embeddingChecker)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
