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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"colorgarb-portal/internal/config"
	"colorgarb-portal/internal/events"
	"colorgarb-portal/internal/handlers"
	"colorgarb-portal/internal/middleware"
	"colorgarb-portal/internal/models"
	"colorgarb-portal/internal/repository"
	"colorgarb-portal/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title ColorGarb Portal API
// @version 1.0
// @description Order workflow and authorization API for the ColorGarb client portal

// @contact.name API Support
// @contact.email support@colorgarb.com

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	if err := migrateDatabase(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: Failed to parse Redis URL: %v", err)
			log.Println("Continuing without Redis caching...")
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Failed to connect to Redis: %v", err)
				log.Println("Continuing without Redis caching...")
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis for caching")
			}
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	// Structured logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db, redisClient)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize NATS events publisher for downstream notifications
	var eventsPublisher *events.Publisher
	eventsPublisher, err = events.NewPublisher(logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize NATS events publisher: %v (continuing without notifications)", err)
		eventsPublisher = nil
	} else {
		log.Println("NATS events publisher initialized for order notifications")
	}

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.IsProduction() {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("colorgarb-portal"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("colorgarb-portal"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("colorgarb", "portal")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize services. The notifier interface hides the publisher so a
	// nil publisher never ends up behind a non-nil interface value.
	var notifier services.Notifier
	if eventsPublisher != nil {
		notifier = eventsPublisher
	}
	orderService := services.NewOrderService(orderRepo, auditRepo, notifier, logger)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	auditHandler := handlers.NewAuditHandler(orderService)
	healthHandler := handlers.NewHealthHandler(orderRepo)

	// Setup router
	router := setupRouter(cfg, orderHandler, auditHandler, healthHandler, metrics, logger)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down ColorGarb portal...")

		if eventsPublisher != nil {
			eventsPublisher.Close()
			log.Println("✓ Events publisher closed")
		}

		if tracerProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			} else {
				log.Println("✓ Tracer provider shut down")
			}
		}

		log.Println("ColorGarb portal stopped")
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting ColorGarb portal on %s", cfg.GetServerAddress())
	if err := router.Run(cfg.GetServerAddress()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase initializes the database connection
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// migrateDatabase runs database migrations
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Order{},
		&models.StageHistoryEntry{},
		&models.AccessAttempt{},
	)
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(cfg *config.Config, orderHandler *handlers.OrderHandler, auditHandler *handlers.AuditHandler, healthHandler *handlers.HealthHandler, metrics *gosharedmw.Metrics, logger *logrus.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())

	// Security headers middleware
	router.Use(gosharedmw.SecurityHeaders())

	// Rate limiting middleware
	router.Use(gosharedmw.RateLimit())
	log.Println("✓ Rate limiting enabled")

	router.Use(middleware.SetupCORS())

	// Observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("colorgarb-portal"))

	// Health check endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")

	// Authentication middleware using Istio JWT claims. Istio validates
	// the JWT and injects x-jwt-claim-* headers.
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: false,
		SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
	}))

	// Actor context for the access policy and attempt logging
	api.Use(middleware.ActorContext())
	{
		orders := api.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/valid-stages", orderHandler.ValidStages)
			orders.GET("/:id/history", orderHandler.History)

			orders.PATCH("/:id/stage", orderHandler.UpdateStage)
			orders.PATCH("/:id/ship-date", orderHandler.UpdateShipDate)
			orders.POST("/bulk/stage", orderHandler.BulkUpdateStage)
		}

		audit := api.Group("/audit")
		{
			audit.GET("/entries", auditHandler.ListEntries)
			audit.GET("/attempts", auditHandler.ListAttempts)
		}
	}

	return router
}
