package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/api/handlers"
	"github.com/devpulse/backend/internal/cache/redis"
	"github.com/devpulse/backend/internal/engine"
	"github.com/devpulse/backend/internal/llm"
	"github.com/devpulse/backend/internal/metrics"
	"github.com/devpulse/backend/internal/middleware/ratelimit"
	"github.com/devpulse/backend/internal/middleware/security"
	"github.com/devpulse/backend/internal/normalize"
	"github.com/devpulse/backend/internal/scoring"
	"github.com/devpulse/backend/internal/semantic"
	"github.com/devpulse/backend/internal/storage/sqlite"
	"github.com/devpulse/backend/pkg/config"
	appLogger "github.com/devpulse/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting DevPulse API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var embedder semantic.Embedder
	if cfg.Embedding.Enabled && cfg.Embedding.APIKey != "" {
		llmClient := llm.NewClient(
			cfg.Embedding.APIKey,
			cfg.Embedding.Model,
			time.Duration(cfg.Embedding.TimeoutSec)*time.Second,
		)

		if cfg.Redis.Enabled {
			redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				appLogger.Warn("Redis unavailable; embedding cache disabled", zap.Error(err))
			} else {
				defer redisClient.Close()
				llmClient.WithCache(redisClient, time.Duration(cfg.Embedding.CacheTTLSec)*time.Second)
			}
		}

		embedder = llmClient
	} else {
		appLogger.Info("Embedding provider not configured; runs use the lexical strategy")
	}

	eventHub := handlers.NewRunEventHub()

	eng, err := engine.New(engine.Options{
		Normalizer: normalize.NewNormalizer(cfg.Analyzer.MaxRecordChars),
		Embedder:   embedder,
		Scoring: scoring.Config{
			Weights: scoring.Weights{
				Source:        cfg.Scoring.SourceWeight,
				Delivery:      cfg.Scoring.DeliveryWeight,
				Collaboration: cfg.Scoring.CollaborationWeight,
				Quality:       cfg.Scoring.QualityWeight,
			},
			AIOptimumLow:  cfg.Scoring.AIOptimumLow,
			AIOptimumHigh: cfg.Scoring.AIOptimumHigh,
		},
		Store: sqliteClient,
		OnProgress: func(p engine.Progress) {
			eventHub.Publish(handlers.RunEvent{
				Type:     "engineer_scored",
				RunID:    p.RunID,
				Engineer: p.Engineer,
				Score:    p.Score,
				Position: p.Position,
				Total:    p.Total,
			})
		},
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize engine", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: 60,
		Logger:            appLogger.GetLogger(),
	})
	defer limiter.Stop()

	runHandler := handlers.NewRunHandler(eng, sqliteClient, eventHub)
	wsHandler := handlers.NewWebSocketHandler(eventHub)

	api := app.Group("/api/v1", limiter.Middleware())

	api.Post("/runs", runHandler.HandleRun)
	api.Get("/runs/history", runHandler.GetRunHistory)
	api.Get("/runs/latest/summary", runHandler.GetLatestSummary)
	api.Get("/runs/:id", runHandler.GetRun)

	app.Get("/ws/events", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
