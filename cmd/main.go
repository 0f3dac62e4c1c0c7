package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"submissions-service/internal/config"
	"submissions-service/internal/events"
	"submissions-service/internal/handlers"
	"submissions-service/internal/middleware"
	"submissions-service/internal/repository"
	"submissions-service/internal/services"
)

// @title Bulk Submissions API
// @version 1.0.0
// @description Bulk campaign submission service with Excel workbook intake and multi-tenant support
// @termsOfService http://swagger.io/terms/

// @contact.name Submissions API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis client
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Structured logger shared by services and the events publisher
	serviceLogger := logrus.New()
	serviceLogger.SetFormatter(&logrus.JSONFormatter{})
	serviceLogger.SetLevel(logrus.InfoLevel)

	// Initialize NATS events publisher
	var publisher services.BatchEventPublisher
	eventsPublisher, err := events.NewPublisher(serviceLogger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
	} else {
		publisher = eventsPublisher
		log.Println("✓ NATS events publisher initialized")
	}

	// Initialize repository with Redis for caching
	submissionRepo := repository.NewSubmissionRepository(db, redisClient)

	// Initialize services
	validationService := services.NewBulkValidationService(submissionRepo, serviceLogger)
	submitService := services.NewBulkSubmitService(submissionRepo, validationService, publisher, serviceLogger)

	// Initialize handlers
	bulkHandler := handlers.NewBulkHandler(validationService, submitService)
	submissionHandler := handlers.NewSubmissionHandler(submissionRepo)
	walletHandler := handlers.NewWalletHandler(submissionRepo)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.Use(middleware.TenantMiddleware())
	{
		bulk := api.Group("/bulk")
		{
			bulk.GET("/template", bulkHandler.GetTemplate)
			bulk.POST("/parse", bulkHandler.ParseWorkbook)
			bulk.POST("/validate", bulkHandler.ValidateBatch)
			bulk.POST("/submit", bulkHandler.SubmitBatch)
		}

		submissions := api.Group("/submissions")
		{
			submissions.GET("", submissionHandler.ListSubmissions)
			submissions.GET("/:id", submissionHandler.GetSubmission)
			submissions.PUT("/:id/status", middleware.RequireRole("admin"), submissionHandler.UpdateSubmissionStatus)
		}

		wallet := api.Group("/wallet")
		{
			wallet.GET("", walletHandler.GetWallet)
			wallet.GET("/transactions", walletHandler.ListTransactions)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Submissions service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down submissions-service...")

	// Close events publisher
	if eventsPublisher != nil {
		eventsPublisher.Close()
		log.Println("✓ Events publisher closed")
	}

	log.Println("Submissions service stopped")
}
