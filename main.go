package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yt-chat/archive"
	"yt-chat/chat"
	"yt-chat/config"
	"yt-chat/events"
	"yt-chat/handlers"
	"yt-chat/logger"
	"yt-chat/media"
	"yt-chat/pipeline"
	"yt-chat/repository/sqlite"
	"yt-chat/services/video"
	"yt-chat/transcription"
	"yt-chat/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logConfig, err := logger.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := sqlite.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize repository
	repo, err := sqlite.NewRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	// Initialize media client
	mediaClient, err := media.NewClient(media.Config{
		YTDLPPath:   cfg.Pipeline.YTDLPPath,
		FFmpegPath:  cfg.Pipeline.FFmpegPath,
		TempDir:     cfg.TempDir,
		Timeout:     cfg.Pipeline.ProcessTimeout,
		AudioFormat: cfg.Pipeline.AudioFormat,
	})
	if err != nil {
		log.Fatalf("Failed to initialize media client: %v", err)
	}

	// Initialize transcription service
	transcriber := transcription.NewService(transcription.Config{
		APIKey:            cfg.OpenAI.APIKey,
		Model:             cfg.OpenAI.WhisperModel,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
	}, zlog.Logger)

	// Initialize progress bus and processing pipeline
	bus := events.NewBus(zlog.Logger)
	pipe := pipeline.New(
		repo,
		mediaClient,
		mediaClient,
		transcriber,
		bus,
		pipeline.Config{MaxFileSize: cfg.Pipeline.MaxFileSize},
		zlog.Logger,
	)

	// Optional transcript archive
	if cfg.Spaces.Enabled() {
		spaces, err := archive.NewSpacesClient(archive.SpacesConfig{
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
			Region:    cfg.Spaces.Region,
			Endpoint:  cfg.Spaces.Endpoint,
			Bucket:    cfg.Spaces.Bucket,
		})
		if err != nil {
			log.Fatalf("Failed to initialize spaces client: %v", err)
		}
		pipe.SetArchiver(spaces)
	}

	// Start dispatcher workers
	dispatcher := pipeline.NewDispatcher(
		pipe,
		cfg.Pipeline.Workers,
		cfg.Pipeline.QueueSize,
		cfg.Pipeline.ProcessTimeout,
		zlog.Logger,
	)
	dispatcher.Start()

	// Initialize validator
	validator := validation.NewValidator()

	// Initialize video service
	videoService := video.NewService(
		repo,
		dispatcher,
		validator,
		video.Config{ProcessTimeout: cfg.Pipeline.ProcessTimeout},
		zlog.Logger,
	)

	// Initialize chat service
	chatService := chat.NewService(repo, chat.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.ChatModel,
	}, zlog.Logger)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "yt-chat " + cfg.Version,
	})

	setupMiddleware(app, cfg, logConfig)

	// Setup routes
	videoHandler := handlers.NewVideoHandler(videoService)
	eventsHandler := handlers.NewEventsHandler(videoService, bus)
	chatHandler := handlers.NewChatHandler(chatService)

	app.Post("/api/videos", videoHandler.Submit)
	app.Get("/api/videos/:id", videoHandler.Get)
	app.Post("/api/videos/:id/retry", videoHandler.Retry)
	app.Get("/api/videos/:id/events", eventsHandler.Stream)
	app.Post("/api/videos/:id/chat", chatHandler.Ask)

	app.Get("/health", handlers.HealthCheck)

	// Graceful shutdown setup
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		// Drain in-flight pipeline runs before releasing the database.
		dispatcher.Close()

		if err := db.Close(); err != nil {
			log.Printf("Database shutdown error: %v", err)
		}
	}()

	// Start server
	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(fiberLogger.New(*logConfig))

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORS.AllowedOrigins, ","),
		AllowMethods: strings.Join(cfg.CORS.AllowedMethods, ","),
		AllowHeaders: strings.Join(cfg.CORS.AllowedHeaders, ","),
		MaxAge:       cfg.CORS.MaxAge,
	}))

	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
			Next: func(c *fiber.Ctx) bool {
				// SSE connections are long-lived, not request bursts.
				return strings.HasSuffix(c.Path(), "/events")
			},
		}))
	}
}
