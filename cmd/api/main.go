package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"resume-matcher/internal/config"
	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/handlers"
	applogger "resume-matcher/internal/logger"
	"resume-matcher/internal/repositories"
	"resume-matcher/internal/services"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := applogger.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	logger.Info("configuration loaded", zap.String("env", cfg.Server.Env))

	db, err := config.InitDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	runRepo := repositories.NewMatchRunRepository(db)

	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize Gemini client", zap.Error(err))
	}

	vectorStore, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Matching.EmbeddingDimension,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize Qdrant client", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()
	if err := vectorStore.InitCollection(initCtx); err != nil {
		logger.Fatal("failed to initialize Qdrant collection", zap.Error(err))
	}

	retries := cfg.Worker.RetryMaxAttempts
	retryDelay := cfg.Worker.RetryInitialDelay

	jdExtractor := services.NewJDExtractorService(geminiService, retries, retryDelay, logger)
	resumeParser := services.NewResumeParserService(geminiService, retries, retryDelay, logger)
	pdfParser := services.NewPDFParserService()
	embedder := services.NewEmbeddingService(geminiService, cfg.Matching.EmbeddingDimension, retries, retryDelay, logger)
	evaluator := services.NewMatchEvaluatorService(cfg.Matching.FullCreditWhenNoSkills, logger)
	recommender := services.NewSkillRecommenderService(geminiService, retries, retryDelay, logger)

	matcher := services.NewMatcherService(
		jdExtractor,
		resumeParser,
		pdfParser,
		embedder,
		vectorStore,
		evaluator,
		recommender,
		runRepo,
		cfg.Worker.Concurrency,
		cfg.Matching.RecallFloor,
		logger,
	)
	logger.Info("services initialized")

	matchHandler := handlers.NewMatchHandler(matcher, cfg.Upload, cfg.Matching, cfg.Server.RequestTimeout)
	storeHandler := handlers.NewStoreHandler(matcher, cfg.Upload, cfg.Server.RequestTimeout)
	historyHandler := handlers.NewHistoryHandler(runRepo, vectorStore)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		BodyLimit:    int(cfg.Upload.MaxFileSize) * cfg.Upload.MaxStoreFiles,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "resume-matcher",
			"version": version,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/match", matchHandler.HandleMatch)
	api.Post("/search-database", matchHandler.HandleSearchDatabase)
	api.Post("/store-resumes", storeHandler.HandleStoreResumes)
	api.Get("/history", historyHandler.HandleHistory)
	api.Get("/statistics", historyHandler.HandleStatistics)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	if pe, ok := apperrors.As(err); ok {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": pe.Message,
			"code":  pe.Code,
			"stage": pe.Stage,
		})
	}

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
