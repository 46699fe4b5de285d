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
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/handlers"
	"alfredoptarigan/career-coach/internal/middleware"
	"alfredoptarigan/career-coach/internal/repositories"
	"alfredoptarigan/career-coach/internal/services"
	"alfredoptarigan/career-coach/internal/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	uploadService := services.NewUploadService(cfg.Upload.MaxFileSize)
	extractor := services.NewDocumentExtractor()
	scoringService := services.NewScoringService(analysisRepo, geminiService, validation.New(), cfg.Gemini)

	synthesizer := services.NewGeminiSynthesizer(geminiService)
	recognizer := services.NewGeminiRecognizer(geminiService)
	interviewStore := services.NewInterviewStore(func() *services.InterviewSession {
		return services.NewInterviewSession(geminiService, synthesizer, recognizer, cfg.Interview)
	})
	log.Printf("✅ Services initialized successfully (interview mode: %s)\n", cfg.Interview.Mode)

	// Initialize worker
	worker := services.NewWorker(analysisRepo, scoringService, cfg.Worker)

	ctx := context.Background()
	worker.Start(ctx)

	// Initialize Handlers
	documentHandler := handlers.NewDocumentHandler(uploadService, extractor)
	analysisHandler := handlers.NewAnalysisHandler(scoringService, worker)
	resultHandler := handlers.NewResultHandler(scoringService)
	interviewHandler := handlers.NewInterviewHandler(interviewStore, uploadService)
	log.Println("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:      "Career Coach API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Upload.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	protected := api.Group("", middleware.Auth(cfg.Auth))

	protected.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(middleware.CurrentIdentity(c))
	})

	protected.Post("/documents/extract", documentHandler.HandleExtract)

	protected.Post("/analyses", analysisHandler.HandleSubmit)
	protected.Get("/analyses/latest", resultHandler.HandleGetLatest)
	protected.Get("/analyses/:id", resultHandler.HandleGetResult)

	protected.Get("/interview", interviewHandler.HandleGet)
	protected.Post("/interview/start", interviewHandler.HandleStart)
	protected.Post("/interview/messages", interviewHandler.HandleMessage)
	protected.Delete("/interview", interviewHandler.HandleReset)
	protected.Get("/interview/audio", interviewHandler.HandleAudio)
	protected.Post("/interview/transcribe", interviewHandler.HandleTranscribe)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Career Coach API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/me",
				"POST /api/v1/documents/extract",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/latest",
				"GET /api/v1/analyses/:id",
				"GET /api/v1/interview",
				"POST /api/v1/interview/start",
				"POST /api/v1/interview/messages",
				"DELETE /api/v1/interview",
				"GET /api/v1/interview/audio",
				"POST /api/v1/interview/transcribe",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
