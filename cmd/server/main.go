package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"klinehub/configs"
	"klinehub/internal/assets"
	"klinehub/internal/collector"
	"klinehub/internal/drivers/coingecko"
	"klinehub/internal/handler"
	"klinehub/internal/router"
	"klinehub/internal/service"
	"klinehub/internal/storage"
	"klinehub/internal/stream"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := configs.AppLoad()

	db, err := storage.Open(cfg.Database.Provider, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := storage.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	store := storage.New(db)
	defer store.Close()

	publisher, err := stream.New(cfg.Stream, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize stream publisher: %v", err)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	client := coingecko.NewClient(cfg.CoinGecko, logger)
	task := collector.NewTask(client, store, publisher, cfg.Task, logger)
	coll := collector.New(assets.Supported, task, cfg.Collector, collector.SystemClock(), logger)

	klineService := service.NewKlineService(store)
	klineHandler := handler.NewKlineHandler(klineService, logger)

	engine := router.NewRouter(&router.Config{
		KlineHandler: klineHandler,
	})

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run one cycle immediately so a fresh deploy serves data before the
	// first aligned boundary, then settle into the cadence.
	go func() {
		coll.RunCycle(ctx)
		coll.Run(ctx)
	}()

	go func() {
		logger.Infof("Server running on port %s", cfg.ServerPort)
		if err := engine.Run(":" + cfg.ServerPort); err != nil {
			logger.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping")
}
