package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shelfaware/database"
	"shelfaware/internal/checker"
	"shelfaware/internal/config"
	"shelfaware/internal/repository"
)

func main() {
	log.Println("=== ShelfAware Expiry Checker ===")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
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

	log.Println("✅ Connected to database")

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Printf("⚠️ Redis unavailable, alert dedup falls back to the notification table: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	productRepo := repository.NewProductRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	stateRepo := repository.NewCheckStateRepository(db)

	alerter := checker.NewPushAlerter(cfg.PushGatewayURL, rdb, float64(cfg.AlertsPerSec), cfg.AlertDedupTTL)
	checkService := checker.NewCheckService(productRepo, notificationRepo, stateRepo, alerter)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Shutdown signal received, stopping expiry checker...")
		cancel()
	}()

	// One sweep right away, then the recurring trigger takes over.
	scheduler := checker.NewTickerScheduler()
	checkService.Start(ctx, scheduler, cfg.CheckInterval)

	log.Println("✅ Expiry checker running. Press Ctrl+C to stop.")
	<-ctx.Done()

	scheduler.Cancel()
	log.Println("👋 Expiry checker stopped")
}
