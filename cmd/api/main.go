package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/config"
	"github.com/treytuscai/DevReady/internal/database"
	"github.com/treytuscai/DevReady/internal/handler"
	"github.com/treytuscai/DevReady/internal/harness"
	"github.com/treytuscai/DevReady/internal/middleware"
	"github.com/treytuscai/DevReady/internal/repository"
	"github.com/treytuscai/DevReady/internal/router"
	"github.com/treytuscai/DevReady/internal/service"
	"github.com/treytuscai/DevReady/pkg/ai"
	"github.com/treytuscai/DevReady/pkg/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set; question cache and redis events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	dispatcher, closeDispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create sandbox dispatcher: %v", err)
	}
	defer closeDispatcher()

	var assistant ai.Assistant
	if cfg.AI.APIKey != "" {
		openAI, err := ai.NewOpenAIAssistant(ai.OpenAIConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Logger:  logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai assistant: %v", err)
		}
		assistant = openAI
	} else {
		logger.Warn().Msg("ai api key not set; hint and analysis routes disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	questionService := service.NewQuestionService(questionRepo, submissionRepo, redisClient, cfg.QuestionCacheTTL, logger)
	publisher := service.NewSubmissionPublisher(redisClient, natsConn, cfg.EventSubject, logger)
	executionService := service.NewCodeExecutionService(questionRepo, submissionRepo, harness.NewRegistry(), dispatcher, publisher, questionService, logger)
	assistantService := service.NewAssistantService(assistant, validate, logger)
	seedService := service.NewSeedService(questionRepo, questionService, validate, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.Sandbox.MaxProgramBytes * 2,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CodeExecutionHandler: handler.NewCodeExecutionHandler(executionService, logger),
		QuestionHandler:      handler.NewQuestionHandler(questionService, logger),
		AssistantHandler:     handler.NewAssistantHandler(assistantService, logger),
		SeedHandler:          handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
		RunRateLimiter:       middleware.RateLimit("run", cfg.RunRateLimit, cfg.RunRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("sandbox_driver", cfg.Sandbox.Driver).Msg("server started")
	waitForShutdown(app)
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.SQLitePath)
}

func newDispatcher(cfg config.Config, logger zerolog.Logger) (sandbox.Dispatcher, func(), error) {
	if cfg.Sandbox.Driver == config.SandboxDriverDocker {
		runner, err := sandbox.NewDockerRunner(sandbox.DockerConfig{
			Host:          cfg.Sandbox.DockerHost,
			Timeout:       cfg.Sandbox.ExecutionTimeout,
			MemoryLimitMB: cfg.Sandbox.MemoryLimitMB,
			CPUShares:     cfg.Sandbox.CPUShares,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return runner, func() { _ = runner.Close() }, nil
	}

	client := sandbox.NewClient(sandbox.ClientConfig{
		Endpoint:         cfg.Sandbox.Endpoint,
		ExecutionTimeout: cfg.Sandbox.ExecutionTimeout,
		ClientTimeout:    cfg.Sandbox.ClientTimeout,
		MaxProgramBytes:  cfg.Sandbox.MaxProgramBytes,
		MaxResponseBytes: cfg.Sandbox.MaxResponseBytes,
		Logger:           logger,
	})
	return client, func() {}, nil
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
