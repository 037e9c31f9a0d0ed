package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	documentrepo "github.com/kailas-cloud/ragdex/internal/repository/document"
	"github.com/kailas-cloud/ragdex/internal/repository/keyspace"
	searchrepo "github.com/kailas-cloud/ragdex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/ragdex/internal/transport/chi"
	openaiGen "github.com/kailas-cloud/ragdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	documentuc "github.com/kailas-cloud/ragdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/ragdex/internal/version"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

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

	logger.Info("Starting ragdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Index.Name),
		zap.Bool("generation_enabled", cfg.Generation.Enabled()),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:         cfg.Database.Addrs,
		Username:      cfg.Database.Username,
		Password:      cfg.Database.Password,
		DB:            cfg.Database.DB,
		TLS:           cfg.Database.TLS,
		TLSSkipVerify: cfg.Database.TLSSkipVerify,
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

	keys := keyspace.New(cfg.Storage.KeyPrefix, cfg.Index.Name)
	docRepo := documentrepo.New(store, keys, logger,
		documentrepo.WithLanguage(cfg.Index.Language),
		documentrepo.WithNoStem(cfg.Index.NoStem),
	)
	searchRepo := searchrepo.New(store, keys, cfg.Index.Scorer)

	if err := docRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure index", zap.Error(err))
	}

	metrics.RegisterGenerationMetrics()

	// Pass nil interfaces (not typed nil pointers) when generation is off,
	// so the services can tell it is disabled.
	var (
		generator     answeruc.Generator
		healthChecker healthuc.GenerationChecker
	)
	if cfg.Generation.Enabled() {
		g, err := buildGenerator(cfg.Generation, logger)
		if err != nil {
			logger.Fatal("Failed to create generator", zap.Error(err))
		}
		generator = g
		healthChecker = g
		logger.Info("Generator created",
			zap.String("provider", cfg.Generation.Provider),
			zap.String("model", cfg.Generation.ChatModel),
			zap.Int("prompt_budget", g.PromptBudget()),
		)
	} else {
		logger.Warn("OPENAI_API_KEY is not set, /generate_answer/ will fail with 502")
	}

	docSvc := documentuc.New(docRepo).WithMaxBatchSize(cfg.Index.MaxBatchSize)
	retrievalSvc := retrievaluc.New(searchRepo)
	answerSvc := answeruc.New(retrievalSvc, generator, cfg.Index.DefaultTopK)
	healthSvc := healthuc.New(store, healthChecker)

	server := chiTransport.NewServer(docSvc, retrievalSvc, answerSvc, healthSvc, chiTransport.Options{
		DefaultTopK:   cfg.Index.DefaultTopK,
		MaxTopK:       cfg.Index.MaxTopK,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		AnswerLimiter: chiTransport.NewLimiter(cfg.Generation.RateLimitRPS, cfg.Generation.RateLimitBurst),
	}, logger)

	r := newRouter(server, cfg, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// buildGenerator wires the vendor tokenizer into the chat completion client.
func buildGenerator(cfg config.GenerationConfig, logger *zap.Logger) (*openaiGen.Generator, error) {
	tok, err := openaiGen.NewTiktokenTokenizer(cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	logger.Info("Tokenizer loaded", zap.String("model", cfg.ChatModel), zap.String("encoding", tok.Encoding()))
	return openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:           cfg.APIKey,
		Organization:     cfg.Organization,
		BaseURL:          cfg.BaseURL,
		Model:            cfg.ChatModel,
		MaxTokens:        cfg.MaxTokens,
		GenerationLength: cfg.GenerationLengthTokens,
		Provider:         cfg.Provider,
		Tokenizer:        tok,
		Logger:           logger,
	})
}

// newRouter assembles the middleware chain and mounts the API routes.
func newRouter(server *chiTransport.Server, cfg config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)
	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logpkg.FromContextOr(r.Context(), logger).Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal error"})
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields = append(fields, zap.String("route", pattern))
				}
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
