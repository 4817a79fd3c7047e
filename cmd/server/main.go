package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"noxy/internal/agent"
	"noxy/internal/config"
	"noxy/internal/database"
	"noxy/internal/document"
	"noxy/internal/handlers"
	"noxy/internal/logging"
	"noxy/internal/services"
	"noxy/internal/vectorstore"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Noxy server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	// MongoDB conversation store
	mongoDB, err := database.NewMongoDB(cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(ctx); err != nil {
			log.Printf("⚠️  Failed to close MongoDB: %v", err)
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mongoDB.Initialize(ctx); err != nil {
			cancel()
			log.Fatalf("❌ Failed to initialize MongoDB indexes: %v", err)
		}
		cancel()
	}

	// Model services
	llmService := services.NewLLMService(cfg)
	embeddingService := services.NewEmbeddingService(cfg)

	// Process-wide vector index handle, initialized once
	store, err := vectorstore.Default(cfg.VectorDBPath, embeddingService)
	if err != nil {
		log.Fatalf("❌ Failed to open vector index: %v", err)
	}
	defer store.Close()

	// Metrics
	metrics := services.InitMetrics()

	// Domain services
	conversationService := services.NewConversationService(mongoDB)
	onboardingClient := services.NewOnboardingClient(cfg)
	injector := document.NewInjector(store)

	// Assistant pipeline
	router := agent.NewRouter(
		llmService,
		agent.NewRetriever(store),
		agent.NewFileResolver(onboardingClient, embeddingService, llmService, cfg.FileMatchThreshold),
		agent.NewTaskStatusResolver(onboardingClient),
		agent.NewComposer(llmService, cfg.HistoryWindow),
		metrics,
	)

	// Handlers
	healthHandler := handlers.NewHealthHandler(store)
	chatHandler := handlers.NewChatHandler(conversationService, onboardingClient, router, metrics)
	documentHandler := handlers.NewDocumentHandler(injector, metrics)

	app := fiber.New(fiber.Config{
		AppName:      "Noxy v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second, // LLM replies can take a while
		BodyLimit:    1 * 1024 * 1024,   // chat and document URLs only, no file uploads
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("noxy")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))

	// Routes
	app.Get("/", healthHandler.Home)
	app.Get("/health", healthHandler.Handle)

	app.Post("/chat", chatHandler.Chat)
	app.Get("/history/:username", chatHandler.History)
	app.Get("/user-task-progress/:user_id", chatHandler.TaskProgress)

	app.Post("/upload-document", documentHandler.Upload)
	app.Post("/delete-document", documentHandler.Delete)
	app.Post("/update-document", documentHandler.Update)

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Println("🛑 Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️  Shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Noxy listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
