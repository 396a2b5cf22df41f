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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/config"
	dbRedis "github.com/podscout/podscout/internal/db/redis"
	"github.com/podscout/podscout/internal/domain"
	logpkg "github.com/podscout/podscout/internal/logger"
	"github.com/podscout/podscout/internal/metrics"
	"github.com/podscout/podscout/internal/repository/embcache"
	passagerepo "github.com/podscout/podscout/internal/repository/passage"
	"github.com/podscout/podscout/internal/tagindex"
	chiTransport "github.com/podscout/podscout/internal/transport/chi"
	openaiTransport "github.com/podscout/podscout/internal/transport/openai"
	"github.com/podscout/podscout/internal/transport/websearch"
	answeruc "github.com/podscout/podscout/internal/usecase/answer"
	classifyuc "github.com/podscout/podscout/internal/usecase/classify"
	expertuc "github.com/podscout/podscout/internal/usecase/expert"
	fallbackuc "github.com/podscout/podscout/internal/usecase/fallback"
	"github.com/podscout/podscout/internal/usecase/format"
	gateuc "github.com/podscout/podscout/internal/usecase/gate"
	healthuc "github.com/podscout/podscout/internal/usecase/health"
	ingestuc "github.com/podscout/podscout/internal/usecase/ingest"
	rerankuc "github.com/podscout/podscout/internal/usecase/rerank"
	retrievaluc "github.com/podscout/podscout/internal/usecase/retrieval"
	"github.com/podscout/podscout/internal/version"
)

const embCacheTTL = 24 * time.Hour

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

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

	logger.Info("Starting podscout API server",
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
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Tag table is mandatory: classification and re-ranking depend on it.
	tagIdx, err := tagindex.Load(cfg.Tags.File, buildTagExtractor(cfg, logger))
	if err != nil {
		logger.Fatal("Failed to load tag table", zap.Error(err))
	}
	logger.Info("Tag table loaded",
		zap.String("file", cfg.Tags.File),
		zap.Int("categories", len(tagIdx.Categories())),
	)

	embedder, providerHealth := buildEmbedder(cfg, store, logger)

	// Repositories
	passages := passagerepo.New(store, cfg.Database.KeyPrefix, cfg.Embedding.Dimensions)
	if err := passages.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure passage index", zap.Error(err))
	}

	// Pipeline services
	aggregate := domain.AggregateMean
	if cfg.Pipeline.AggregatePolicy == "max" {
		aggregate = domain.AggregateMax
	}

	classifier := classifyuc.New(tagIdx, classifyuc.Policy{
		CrossPrimaryMin:   cfg.Pipeline.CrossPrimaryMin,
		CrossSecondaryMin: cfg.Pipeline.CrossSecondaryMin,
	})
	retriever := retrievaluc.New(
		passages, embedder, cfg.Pipeline.TopK, int64(cfg.Pipeline.MaxInflightSearches),
	)
	reranker := rerankuc.New(aggregate)
	gater := gateuc.New(cfg.Pipeline.ConfidenceThreshold, cfg.Pipeline.MinCandidates)

	var searchClient *websearch.Client
	if cfg.WebSearch.Endpoint != "" {
		searchClient = websearch.New(&websearch.Config{
			Endpoint: cfg.WebSearch.Endpoint,
			APIKey:   cfg.WebSearch.APIKey,
			Timeout:  time.Duration(cfg.WebSearch.TimeoutSec) * time.Second,
		})
	}
	fallbackStage := fallbackuc.New(
		searcherOrNil(searchClient), cfg.Pipeline.FallbackConfidence, cfg.Pipeline.MaxRecommendations,
	)

	registry := expertuc.NewRegistry(
		expertuc.NewCategoryStage(domain.CategoryOther, retriever, reranker),
	)
	for _, cat := range tagIdx.Categories() {
		registry.Register(cat, expertuc.NewCategoryStage(cat, retriever, reranker))
	}
	dispatcher, err := expertuc.NewDispatcher(registry, cfg.Pipeline.ExpertPoolSize)
	if err != nil {
		logger.Fatal("Failed to create expert dispatcher", zap.Error(err))
	}
	defer dispatcher.Release()

	synthesizer := openaiTransport.NewSynthesizer(&openaiTransport.Config{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		ChatModel: cfg.Embedding.ChatModel,
		Logger:    logger,
	})

	answers := answeruc.New(
		classifier,
		tagIdx,
		retriever,
		reranker,
		gater,
		fallbackStage,
		dispatcher,
		format.New(cfg.Pipeline.MaxRecommendations),
		synthesizer,
		answeruc.Options{
			MaxExecution:    time.Duration(cfg.Pipeline.MaxExecutionSec) * time.Second,
			EnableTagRerank: *cfg.Pipeline.EnableTagRerank,
			EnableFallback:  *cfg.Pipeline.EnableFallback,
		},
	)

	ingestSvc := ingestuc.New(passages, embedder, tagIdx)

	var webHealth healthuc.WebSearchChecker
	if searchClient != nil {
		webHealth = searchClient
	}
	healthSvc := healthuc.New(store, providerHealth, webHealth)

	server := chiTransport.NewServer(answers, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: provider -> cache. Without an
// API key the deterministic hash embedder serves offline and test setups.
func buildEmbedder(
	cfg config.Config, store *dbRedis.Store, logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	if cfg.Embedding.APIKey == "" {
		logger.Warn("No embedding API key, using deterministic hash embedder")
		return domain.NewHashEmbedder(cfg.Embedding.Dimensions), nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	cached := embcache.New(
		base, store, cfg.Database.KeyPrefix, embCacheTTL, metrics.EmbeddingCacheTotal, logger,
	)
	return cached, base
}

// buildTagExtractor picks the tag extraction fallback: LLM when a chat model
// is configured, heuristic otherwise.
func buildTagExtractor(cfg config.Config, logger *zap.Logger) tagindex.Extractor {
	if cfg.Embedding.APIKey == "" || cfg.Embedding.ChatModel == "" {
		return tagindex.HeuristicExtractor{}
	}
	return openaiTransport.NewExtractor(&openaiTransport.Config{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		ChatModel: cfg.Embedding.ChatModel,
		Logger:    logger,
	})
}

// searcherOrNil avoids the typed-nil interface gotcha: a nil *websearch.Client
// wrapped in fallback.Searcher would not compare equal to nil.
func searcherOrNil(c *websearch.Client) fallbackuc.Searcher {
	if c == nil {
		return unavailableSearcher{}
	}
	return c
}

// unavailableSearcher serves deployments without a web search provider. The
// fallback stage degrades every call, which is the intended behavior.
type unavailableSearcher struct{}

func (unavailableSearcher) Search(
	_ context.Context, _ string, _ domain.Category,
) ([]fallbackuc.WebResult, error) {
	return nil, fmt.Errorf("web search provider not configured: %w", domain.ErrSearchUnavailable)
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
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
