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

	"github.com/writeright/essay-api/internal/config"
	"github.com/writeright/essay-api/internal/database"
	"github.com/writeright/essay-api/internal/events"
	"github.com/writeright/essay-api/internal/handler"
	"github.com/writeright/essay-api/internal/middleware"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/internal/ocr"
	"github.com/writeright/essay-api/internal/repository"
	"github.com/writeright/essay-api/internal/router"
	"github.com/writeright/essay-api/internal/service"
	"github.com/writeright/essay-api/pkg/ai"
	cloud "github.com/writeright/essay-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
		&models.Rewrite{},
		&models.UploadRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		publisher = events.NewNATSPublisher(natsConn, cfg.NATSStatusSubject, logger)
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	aiClient, err := ai.NewClient(ai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		PrimaryModel:    cfg.OpenAIPrimaryModel,
		EvaluationModel: cfg.OpenAIEvaluationModel,
		FastModel:       cfg.OpenAIFastModel,
		VisionModel:     cfg.OpenAIVisionModel,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}
	extractor := ocr.NewExtractor(aiClient, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	rewriteRepo := repository.NewRewriteRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, evaluationRepo, redisClient, cfg.EvaluationCacheTTL, validate, logger)
	pipelineService := service.NewPipelineService(submissionRepo, evaluationRepo, rewriteRepo, extractor, aiClient, aiClient, publisher, logger)
	rewriteService := service.NewRewriteService(submissionRepo, evaluationRepo, rewriteRepo, aiClient, validate, logger)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxSizeMB, cfg.UploadMaxFiles, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, pipelineService, logger)
	rewriteHandler := handler.NewRewriteHandler(rewriteService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		RewriteHandler:    rewriteHandler,
		UploadHandler:     uploadHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		FinalizeLimiter:   middleware.RateLimit("finalize", 5, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, pipelineService)
}

func waitForShutdown(app *fiber.App, pipeline service.PipelineService) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// Let in-flight pipeline runs finish before the process exits.
	pipeline.Wait()

	log.Println("server stopped")
}
