package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/config"
	"github.com/SAP-F-2025/mentora-service/internal/events"
	"github.com/SAP-F-2025/mentora-service/internal/handlers"
	"github.com/SAP-F-2025/mentora-service/internal/jobs"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/repositories/mongodb"
	"github.com/SAP-F-2025/mentora-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
	"github.com/SAP-F-2025/mentora-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := utils.NewJSONLogger(cfg.SlogLevel())
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager, err := newRepositoryManager(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()
	cacheManager := cache.NewCacheManager(redisClient)

	// Initialize event publisher
	var publisher events.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(brokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewInProcessEventPublisher(slogLogger)
	}

	// Initialize identity provider
	var (
		resolver auth.Resolver
		issuer   services.TokenIssuer
	)
	switch cfg.AuthProvider {
	case config.AuthProviderCasdoor:
		resolver = auth.NewCasdoorResolver(cfg.Casdoor, repo.User(), slogLogger)
	default:
		tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
		resolver, issuer = tokens, tokens
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(repo, cacheManager, publisher, issuer, slogLogger, validator.New())
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Counter reconciliation
	reconciler := jobs.NewCounterReconciler(repo, cacheManager, slogLogger)
	schedule := cfg.ReconcileSchedule
	if !cfg.CountersCanDrift() {
		schedule = ""
	}
	if err := reconciler.Start(schedule); err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, handlers.MiddlewareConfig{
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: cfg.RequestTimeout,
	})

	handlerManager := handlers.NewHandlerManager(serviceManager, resolver, cfg.AuthProvider == config.AuthProviderLocal, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment,
			"store", cfg.StoreDriver, "auth", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	reconciler.Stop(ctx)

	// Closes the publisher, the store and Redis
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
}

func newRepositoryManager(cfg *config.Config, redisClient *redis.Client) (repositories.RepositoryManager, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := pkg.InitMongo(cfg)
		if err != nil {
			return nil, err
		}
		return mongodb.NewRepositoryManager(mongodb.RepositoryConfig{
			Client:       client,
			Database:     cfg.MongoDatabase,
			RedisClient:  redisClient,
			Transactions: cfg.MongoTransactions,
		}), nil
	default:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:          db,
			RedisClient: redisClient,
			AutoMigrate: cfg.DBAutoMigrate,
		}), nil
	}
}
