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
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/config"
	"github.com/arbiterhq/arbiter/api/controller"
	"github.com/arbiterhq/arbiter/api/db"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/router"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Redis. An unreachable cache boots the service in degraded
	// mode instead of keeping it down.
	redisClient, err := db.InitRedis()
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	defer db.CloseRedis(redisClient)
	store := cache.NewRedisStore(redisClient)

	// Initialize MongoDB
	mongoClient, database, err := db.InitMongo()
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB", zap.Error(err))
	}
	defer db.CloseMongo(mongoClient)

	// Initialize the audit trail. A failed Elasticsearch client downgrades
	// to a no-op service.
	auditService := audit.Noop()
	if auditRepo, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url")); err != nil {
		logger.Warn("Elasticsearch unavailable, audit trail disabled", zap.Error(err))
	} else {
		auditService = audit.NewService(auditRepo)
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Cache plumbing and token machinery
	keys := cache.NewKeyScheme(config.GetString("cache.version"))
	inv := cache.NewInvalidator(store, keys, config.IsProduction())
	blacklist := auth.NewBlacklist(store, keys)
	tokens := auth.NewTokenService(
		config.GetString("jwt.secret"),
		config.GetDuration("jwt.accessTTL"),
		config.GetDuration("jwt.refreshTTL"),
		blacklist,
	)
	limiter := cache.NewRateLimiter(store, keys,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.window"))

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	notificationService := util.NewNotificationService()

	services, err := service.InitializeServices(database, store, keys, inv,
		tokens, blacklist, auditService, validationUtil, notificationService, eventBus)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services, mongoClient, store)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(controllers, tokens, limiter)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
