package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edustep/progress-service/internal/cache"
	"github.com/edustep/progress-service/internal/config"
	"github.com/edustep/progress-service/internal/handlers"
	"github.com/edustep/progress-service/internal/repositories/postgres"
	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/edustep/progress-service/internal/validator"
	"github.com/edustep/progress-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	var cacheService cache.CacheService
	if client, err := pkg.NewRedisClient(cfg); err != nil {
		// Progress views just get recomputed on every read without Redis.
		logger.Warn("Redis unavailable, using in-process cache", "error", err)
		cacheService = cache.NewMemoryCache()
	} else {
		defer client.Close()
		cacheService = cache.NewRedisCache(client, slogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()
	serviceManager := services.NewServiceManager(repo, cacheService, cfg.CacheTTL, publisher, slogger, v)
	handlerManager := handlers.NewHandlerManager(serviceManager, repo, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	handlerManager.SetupRoutes(router, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting progress service", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "Forced shutdown")
	}
	logger.Info("Server exited")
}
