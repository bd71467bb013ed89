package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"shelfaware/database"
	"shelfaware/internal/checker"
	"shelfaware/internal/config"
	"shelfaware/internal/handler"
	"shelfaware/internal/middleware"
	"shelfaware/internal/repository"
	"shelfaware/internal/service"
)

func main() {
	log.Println("=== ShelfAware API Server ===")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := slog.Default()
	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		// The API degrades gracefully without redis: the unread counter
		// falls back to the database and delivery dedup relies on the
		// notification table's unique index.
		log.Printf("⚠️ Redis unavailable, continuing without cache: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	productService := service.NewProductService(productRepo)
	notificationService := service.NewNotificationService(notificationRepo, rdb)

	// Session-start expiry checks share the same core as the background
	// sweep; only the sweep daemon owns the recurring trigger.
	alerter := checker.NewPushAlerter(cfg.PushGatewayURL, rdb, float64(cfg.AlertsPerSec), cfg.AlertDedupTTL)
	checkService := checker.NewCheckService(productRepo, notificationRepo, nil, alerter)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(authService)
	authHandler.RegisterRoutes(api.Group("/auth"))

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))

	productHandler := handler.NewProductHandler(productService)
	productHandler.RegisterRoutes(authed.Group("/products"))

	notificationHandler := handler.NewNotificationHandler(notificationService, checkService)
	notificationHandler.RegisterRoutes(authed.Group("/notifications"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Printf("🚀 Server running at :%d", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutdown signal received, stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("👋 API server stopped")
}
