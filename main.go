package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipebox/internal/app"
	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/logging"
	"recipebox/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	opts := app.Options{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		AccessLog: true,
	}

	// --- Redis user cache (optional) ---
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		userCache, err := cache.New(ctx, cfg.RedisURL, cfg.UserCacheTTL)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, user cache disabled")
		} else {
			defer userCache.Close()
			opts.Cache = userCache
		}
	}

	// --- RabbitMQ recipe events (optional) ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logrus.WithError(err).Warn("RabbitMQ unavailable, recipe events disabled")
		} else {
			defer mqClient.Close()
			opts.Broker = mqClient
			logrus.Info("Starting RabbitMQ consumer for recipe events...")
			if err := mqClient.ConsumeRecipeEvents(rabbitmq.LogRecipeEvent); err != nil {
				logrus.WithError(err).Error("Failed to start RabbitMQ consumer")
			}
		}
	}

	server, _, err := app.NewApp(opts)
	if err != nil {
		logrus.Fatalf("Failed to build application: %v", err)
	}

	// --- Start HTTP Server ---
	go func() {
		logrus.Infof("Starting server on port %s", cfg.AppPort)
		if err := server.Listen(cfg.AppPort); err != nil {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logrus.WithError(err).Error("Error during Fiber shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logrus.Info("Server gracefully stopped")
}
