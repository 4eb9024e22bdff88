package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/broker"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "classroom-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.User{}, &models.Subject{}, &models.Activity{}, &models.ActivityAttempt{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient == nil {
		logger.Warn().Msg("redis url not set, statistics caching and redis events disabled")
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := service.NewValidator()
	publisher := broker.NewPublisher(natsConn, redisClient, cfg.EventSubjectPrefix)

	activityRepo := repository.NewActivityRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	userRepo := repository.NewUserRepository(db)

	reportingService := service.NewReportingService(activityRepo, attemptRepo, userRepo, redisClient, cfg.StatisticsCacheTTL, cfg.StatisticsCacheKey, logger)
	deps := service.ActivityDependencies{
		Activities: activityRepo,
		Attempts:   attemptRepo,
		Subjects:   subjectRepo,
		Users:      userRepo,
		Events:     publisher,
		Statistics: reportingService,
	}

	submitGuard := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	activityHandler := func(kind models.ActivityKind) *handler.ActivityHandler {
		return handler.NewActivityHandler(service.NewActivityService(kind, deps, validate, logger), submitGuard, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:  activityHandler(models.ActivityKindAssignment),
		ExamHandler:        activityHandler(models.ActivityKindExam),
		QuizHandler:        activityHandler(models.ActivityKindQuiz),
		ReportingHandler:   handler.NewReportingHandler(reportingService, logger),
		SubjectHandler:     handler.NewSubjectHandler(service.NewSubjectService(subjectRepo, userRepo, validate, logger), logger),
		UserHandler:        handler.NewUserHandler(service.NewUserService(userRepo, validate, logger), logger),
		HealthProbes:       healthProbes(db, redisClient, natsConn),
		IdentityMiddleware: middleware.Identity(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cfg.ShutdownGracePeriod, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.Probe {
	probes := map[string]handler.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}

	return probes
}

func waitForShutdown(app *fiber.App, grace time.Duration, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
