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

	"legalklarity-backend/cache"
	"legalklarity-backend/config"
	"legalklarity-backend/handlers"
	"legalklarity-backend/inference"
	"legalklarity-backend/middleware"
	"legalklarity-backend/repository"
	"legalklarity-backend/service"
	"legalklarity-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if status, missing := cfg.Status(); status != config.StatusReady {
		logger.Fatal("Configuration incomplete", zap.Strings("missing", missing))
	}

	ctx := context.Background()

	// Initialize database connections
	db, err := initPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize Postgres", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Postgres connection established")

	// Initialize storage
	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized", zap.String("type", string(cfg.Storage.Type)))

	// Initialize Gemini
	geminiClient, err := inference.NewGenaiClient(ctx, inference.Credentials{
		APIKey:          cfg.Gemini.APIKey,
		CredentialsFile: cfg.Gemini.CredentialsFile,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Gemini", zap.Error(err))
	}
	defer geminiClient.Close()

	analyzer := inference.NewGenaiAnalyzer(geminiClient, cfg.Gemini.AnalysisModel,
		inference.AnalyzerWithTemperature(cfg.Gemini.Temperature),
		inference.AnalyzerWithLogger(logger.Named("analyzer")),
	)
	chatCfg := inference.ChatConfig{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.ChatModel,
	}
	if err := inference.ResolveChatAuth(ctx, &chatCfg, inference.Credentials{
		APIKey:          cfg.Gemini.APIKey,
		CredentialsFile: cfg.Gemini.CredentialsFile,
	}); err != nil {
		logger.Fatal("Failed to configure chat credentials", zap.Error(err))
	}
	chatClient := inference.NewChatClient(chatCfg, logger.Named("chat"))

	// Initialize services
	analysisOpts := []service.AnalysisServiceOption{
		service.AnalysisWithDocumentStore(repository.NewDocumentRepository(db)),
		service.AnalysisWithStorage(fileStorage),
		service.AnalysisWithAnalyzer(analyzer),
		service.AnalysisWithLogger(logger.Named("analysis")),
		service.AnalysisWithTimeout(cfg.RequestTimeout),
	}
	if cfg.CacheEnabled() {
		analysisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, analysis cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer analysisCache.Close()
			analysisOpts = append(analysisOpts, service.AnalysisWithCache(analysisCache))
			logger.Info("Analysis cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}
	analysisService := service.NewAnalysisService(analysisOpts...)
	riskService := service.NewRiskService(analysisService)
	chatService := service.NewChatService(
		service.ChatWithInference(chatClient),
		service.ChatWithLogger(logger.Named("chat")),
	)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Analysis:    handlers.NewAnalysisHandler(analysisService, logger),
		Documents:   handlers.NewDocumentHandler(analysisService, riskService, logger),
		Chat:        handlers.NewChatHandler(chatService),
		Config:      cfg,
		JWTSecret:   []byte(cfg.AuthJWTSecret),
		ChatLimiter: middleware.NewRateLimiter(cfg.ChatRatePerSecond, cfg.ChatBurst),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() || cfg.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
