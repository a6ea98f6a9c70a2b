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
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/config"
	"github.com/campushub/campushub-api/internal/database"
	"github.com/campushub/campushub-api/internal/handler"
	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/realtime"
	"github.com/campushub/campushub-api/internal/repository"
	"github.com/campushub/campushub-api/internal/router"
	"github.com/campushub/campushub-api/internal/service"
	cloud "github.com/campushub/campushub-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(&models.User{}, &models.Document{}, &models.Post{}, &models.Comment{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, realtime events stay node-local over redis only")
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

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	postRepo := repository.NewPostRepository(db)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hub := realtime.NewHub(redisClient, cfg.RealtimeChannel, natsConn, logger)
	hub.Start(hubCtx)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, validate, logger)
	pyqService := service.NewModerationService(models.KindPYQ, documentRepo, validate, uploader, logger)
	notesService := service.NewModerationService(models.KindNotes, documentRepo, validate, uploader, logger)
	engagementService := service.NewEngagementService(postRepo, hub, validate, logger)
	adminService := service.NewAdminService(userRepo, validate, logger)

	authenticate := middleware.Authenticate(authService)

	authHandler := handler.NewAuthHandler(authService, logger)
	pyqHandler := handler.NewDocumentHandler(pyqService, authenticate, logger)
	notesHandler := handler.NewDocumentHandler(notesService, authenticate, logger)
	postHandler := handler.NewPostHandler(engagementService, authenticate, logger)
	adminHandler := handler.NewAdminHandler(adminService, logger)
	realtimeHandler := handler.NewRealtimeHandler(hub, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:     authHandler,
		PYQHandler:      pyqHandler,
		NotesHandler:    notesHandler,
		PostHandler:     postHandler,
		AdminHandler:    adminHandler,
		RealtimeHandler: realtimeHandler,
		Authenticate:    authenticate,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopHub)
}

func waitForShutdown(app *fiber.App, stopHub context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
