// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/config"
	"github.com/javajoker/agent-commerce/internal/database"
	"github.com/javajoker/agent-commerce/internal/events"
	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/idempotency"
	"github.com/javajoker/agent-commerce/internal/repository"
	"github.com/javajoker/agent-commerce/internal/router"
	"github.com/javajoker/agent-commerce/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize storage
	var (
		products repository.ProductRepository
		orders   repository.OrderRepository
	)
	switch cfg.Storage.Driver {
	case "memory":
		logrus.Warn("Using in-memory storage; orders are lost on restart")
		products = repository.NewMemoryProductRepository()
		orders = repository.NewMemoryOrderRepository()
	default:
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db)

		if err := database.RunMigrations(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
		products = repository.NewGormProductRepository(db)
		orders = repository.NewGormOrderRepository(db)
	}

	if err := database.SeedCatalog(context.Background(), products); err != nil {
		logrus.WithError(err).Fatal("Failed to seed catalog")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Fulfillment events
	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logrus.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Publishing fulfillment events to Kafka")
	}
	defer publisher.Close()

	// Checkout idempotency
	var idemStore idempotency.Store = idempotency.NewMemoryStore(cfg.Redis.IdempotencyTTL)
	if cfg.Redis.Addr != "" {
		rdb := idempotency.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logrus.WithError(err).Fatal("Failed to connect to Redis")
		}
		cancel()
		idemStore = idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL)
	}

	// Initialize services
	notificationService := services.NewNotificationService(publisher)
	catalogService := services.NewCatalogService(products)
	stablecoinService := services.NewStablecoinService(orders, cfg.Stablecoin)
	checkoutService := services.NewCheckoutService(
		catalogService,
		orders,
		services.NewStripeGateway(cfg.Payment),
		stablecoinService,
		notificationService,
		cfg.Payment.Currency,
	)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(cfg, router.Services{
		Catalog:     catalogService,
		Checkout:    checkoutService,
		Idempotency: idemStore,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	notificationService.Wait()
	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
