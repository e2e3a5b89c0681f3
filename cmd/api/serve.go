package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/config"
	"rezoomai/resume-api/internal/handlers"
	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/repositories"
	"rezoomai/resume-api/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize repositories
	var (
		feedbackRepo repositories.FeedbackRepository
		profileRepo  repositories.ProfileRepository
	)
	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return err
		}
		feedbackRepo = repositories.NewFeedbackRepository(db)
		profileRepo = repositories.NewProfileRepository(db)
	} else {
		log.Info("database disabled, history and profile routes answer 503")
	}

	// Initialize Gemini AI
	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		EmbedModel:  cfg.Gemini.EmbedModel,
		Temperature: cfg.Gemini.Temperature,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini: %w", err)
	}
	log.Info("gemini initialized", logger.ModelFields("gemini", gemini.Model())...)

	// Initialize Qdrant
	var guidance services.GuidanceRetriever
	if cfg.Qdrant.Enabled {
		store, err := newGuidanceStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()
		guidance = services.NewGuidanceRetriever(gemini, store, services.DocTypeResumeGuide, cfg.Qdrant.TopK)
	}

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		return err
	}

	analyzer := services.NewAnalyzer(gemini, guidance, cfg.Gemini.Timeout, log)

	routes := handlers.Routes{
		Upload:   handlers.NewUploadHandler(services.NewTextExtractor(), archive, cfg.Storage.MaxFileSize, log),
		Analyze:  handlers.NewAnalyzeHandler(analyzer, feedbackRepo, log),
		Feedback: handlers.NewFeedbackHandler(feedbackRepo, log),
		Profile:  handlers.NewProfileHandler(profileRepo, log),
	}

	fiberCfg := handlers.NewFiberConfig(handlers.BodyLimit(cfg.Storage.MaxFileSize), log)
	fiberCfg.ReadTimeout = cfg.Server.ReadTimeout
	fiberCfg.WriteTimeout = cfg.Server.WriteTimeout
	server := fiber.New(fiberCfg)

	// Middleware
	server.Use(recover.New())
	server.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	routes.Register(server)

	// Health check
	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Root route
	server.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "RezoomAI Resume API",
			"version": version,
			"endpoints": []string{
				"POST /upload",
				"POST /analyze",
				"GET /users/:userId/feedback",
				"POST /users/:userId/feedback",
				"GET /users/:userId/profile",
				"PUT /users/:userId/profile",
				"GET /health",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig, ok := <-quit
		if !ok {
			return
		}
		log.Info("shutting down server", zap.String("signal", sig.String()))
		if err := server.ShutdownWithTimeout(cfg.Gemini.Timeout + 5*time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("version", version))

	if err := server.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newGuidanceStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.GuidanceStore, error) {
	store, err := services.NewQdrantStore(services.QdrantOptions{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: cfg.Qdrant.VectorSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}

	if err := store.InitCollection(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}
	log.Info("qdrant initialized", zap.String("collection", cfg.Qdrant.Collection))
	return store, nil
}

func newArchive(ctx context.Context, cfg *config.Config) (services.Archive, error) {
	switch cfg.Archive.Backend {
	case config.ArchiveLocal:
		return services.NewLocalArchive(cfg.Archive.Path)
	case config.ArchiveS3:
		return services.NewS3Archive(ctx, services.S3Options{
			Bucket:    cfg.Archive.S3.Bucket,
			Region:    cfg.Archive.S3.Region,
			Endpoint:  cfg.Archive.S3.Endpoint,
			AccountID: cfg.Archive.S3.AccountID,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
		})
	default:
		return nil, nil
	}
}
