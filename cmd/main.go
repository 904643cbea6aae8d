package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"postpilot/internal/ai"
	"postpilot/internal/config"
	"postpilot/internal/logger"
	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/internal/telemetry"
	"postpilot/middleware"
	"postpilot/routes"
	"postpilot/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("postpilot-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	// Connect to Redis (the durable store)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	kv := store.NewRedisKV(rdb, cfg.StoreNamespace)
	connections := store.NewConnectionStore(kv)
	schedule := store.NewScheduleStore(kv)
	history := store.NewHistoryStore(kv)

	// Generation pipeline
	textClient, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.TextRPM)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer textClient.Close()

	imageClient := ai.NewImageClient(cfg.ImageAPIKey, cfg.ImageAPIURL, cfg.ImageModel)
	generator := ai.NewVersionGenerator(textClient, imageClient, cfg.GenerateVersions)

	gateway := platform.NewFacebookClient(cfg.GraphAPIURL)
	orch := services.NewOrchestrator(generator, gateway, connections, schedule, history)
	export := services.NewExportService(history)

	// Scheduled post dispatch
	var dispatcher *services.Dispatcher
	if cfg.DispatchEnabled {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer asynqClient.Close()

		dispatcher = services.NewDispatcher(schedule, asynqClient, time.Duration(cfg.DispatchInterval)*time.Second)
		if err := dispatcher.Start(); err != nil {
			log.Fatal("Failed to start dispatcher:", err)
		}
		defer dispatcher.Stop()
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupPostRoutes(router, orch, export, history)
	routes.SetupConnectionRoutes(router, connections, gateway)
	routes.SetupScheduleRoutes(router, orch, schedule)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
