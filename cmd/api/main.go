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

	"github.com/noah-isme/gema-lingua-api/internal/config"
	"github.com/noah-isme/gema-lingua-api/internal/database"
	"github.com/noah-isme/gema-lingua-api/internal/handler"
	"github.com/noah-isme/gema-lingua-api/internal/middleware"
	"github.com/noah-isme/gema-lingua-api/internal/models"
	"github.com/noah-isme/gema-lingua-api/internal/observability"
	"github.com/noah-isme/gema-lingua-api/internal/planner"
	"github.com/noah-isme/gema-lingua-api/internal/repository"
	"github.com/noah-isme/gema-lingua-api/internal/router"
	"github.com/noah-isme/gema-lingua-api/internal/scoring"
	"github.com/noah-isme/gema-lingua-api/internal/service"
	"github.com/noah-isme/gema-lingua-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Task{}, &models.Question{}, &models.ScoreResult{}, &models.HolisticEvaluation{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS only back the plan cache and score events, so the API starts without them.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; quiz plan cache and redis score events disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; nats score events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	judge, err := ai.NewJudge(ai.FactoryConfig{
		Provider:        cfg.AIProvider,
		Model:           cfg.JudgeModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		MaxAttempts:     cfg.JudgeMaxAttempts,
		Logger:          logger,
	})
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.AIProvider).Msg("ai judge unavailable; subjective answers use the fallback rule")
		judge = nil
	}

	tables := planner.DefaultTables()
	if cfg.PlannerTablesPath != "" {
		tables, err = planner.LoadTables(cfg.PlannerTablesPath)
		if err != nil {
			log.Fatalf("failed to load planner tables: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	holisticRepo := repository.NewHolisticRepository(db)

	events := service.NewScoreEventPublisher(redisClient, cfg.ScoreEventChannel, natsConn, cfg.ScoreEventSubject, logger)
	subjective := scoring.NewSubjectiveEvaluator(judge, scoring.SubjectiveConfig{
		Timeout:        cfg.JudgeTimeout,
		EssayPassRatio: cfg.EssayPassRatio,
	}, logger)

	scoringService := service.NewScoringService(questionRepo, scoreRepo, scoring.NewEngine(subjective), events, validate, logger)
	holisticService := service.NewHolisticEvaluationService(holisticRepo, judge, cfg.JudgeTimeout, events, validate, logger)
	quizPlanService := service.NewQuizPlanService(planner.New(tables), redisClient, cfg.PlanCacheTTL, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScoringHandler:  handler.NewScoringHandler(scoringService, holisticService, logger),
		QuizPlanHandler: handler.NewQuizPlanHandler(quizPlanService, logger),
		MetricsHandler:  observability.MetricsHandler(),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
