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
	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/config"
	"github.com/edulearn-io/edulearn-go-api/internal/database"
	"github.com/edulearn-io/edulearn-go-api/internal/events"
	"github.com/edulearn-io/edulearn-go-api/internal/handler"
	"github.com/edulearn-io/edulearn-go-api/internal/middleware"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
	"github.com/edulearn-io/edulearn-go-api/internal/router"
	"github.com/edulearn-io/edulearn-go-api/internal/service"
	cloud "github.com/edulearn-io/edulearn-go-api/pkg/cloudinary"
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

	err = db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Exercise{},
		&models.Challenge{},
		&models.Submission{},
		&models.ChallengeSubmission{},
		&models.StudentScore{},
		&models.ActivityLog{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := events.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()
	publisher := events.NewNATSPublisher(natsConn, logger)

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	challengeSubmissionRepo := repository.NewChallengeSubmissionRepository(db)
	scoreRepo := repository.NewStudentScoreRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	txManager := repository.NewTxManager(db)

	podiumCache := service.NewLeaderboardCache(redisClient, cfg.PodiumCacheTTL, logger)

	submissionService := service.NewSubmissionService(
		submissionRepo, exerciseRepo, courseRepo, userRepo,
		txManager, validate, uploader, publisher, logger,
	)
	challengeSubmissionService := service.NewChallengeSubmissionService(
		challengeSubmissionRepo, challengeRepo, courseRepo, userRepo,
		txManager, validate, uploader, publisher, podiumCache, logger,
	)
	podiumService := service.NewPodiumService(scoreRepo, courseRepo, userRepo, podiumCache, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)

	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	challengeSubmissionHandler := handler.NewChallengeSubmissionHandler(challengeSubmissionService, logger)
	podiumHandler := handler.NewPodiumHandler(podiumService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:          submissionHandler,
		ChallengeSubmissionHandler: challengeSubmissionHandler,
		PodiumHandler:              podiumHandler,
		ActivityHandler:            activityHandler,
		JWTMiddleware:              middleware.JWTProtected(cfg.JWTSecret),
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
