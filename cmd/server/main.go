package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/modelfolio/internal/backup"
	"github.com/aristath/modelfolio/internal/clients/alphavantage"
	"github.com/aristath/modelfolio/internal/clients/finnhub"
	"github.com/aristath/modelfolio/internal/config"
	"github.com/aristath/modelfolio/internal/database"
	"github.com/aristath/modelfolio/internal/events"
	"github.com/aristath/modelfolio/internal/modules/pricing"
	"github.com/aristath/modelfolio/internal/modules/rebalancing"
	"github.com/aristath/modelfolio/internal/modules/regime"
	"github.com/aristath/modelfolio/internal/scheduler"
	"github.com/aristath/modelfolio/internal/server"
	"github.com/aristath/modelfolio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Modelfolio")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Seed model state on first boot
	repo := rebalancing.NewRepository(db)
	startDate := time.Now().In(cfg.Location()).Format("2006-01-02")
	if err := repo.InitState(startDate, cfg.StartingNAV); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed model state")
	}

	// Price source chain
	queue := pricing.NewQueue(cfg.QueueCooldown, log)
	defer queue.Close()

	finnhubClient := finnhub.NewClient(cfg.FinnhubAPIKey, cfg.ProviderTimeout, log)
	alphaClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey, cfg.ProviderTimeout, log)

	priceService := pricing.NewService(pricing.ServiceConfig{
		Primary:   finnhubClient,
		Secondary: alphaClient,
		Series:    alphaClient,
		Queue:     queue,
		Cache:     pricing.NewCache(cfg.QuoteCacheTTL),
		Timeout:   cfg.ProviderTimeout,
		Log:       log,
	})

	// Event fanout
	eventManager := events.NewManager(log)

	// Rebalance orchestrator
	rebalanceService := rebalancing.NewService(rebalancing.ServiceConfig{
		Repo:       repo,
		Prices:     priceService,
		Classifier: regime.NewClassifier(log),
		Simulator:  rebalancing.NewSimulator(cfg.TransactionCostRate, log),
		Events:     eventManager,
		Benchmark:  cfg.BenchmarkSymbol,
		Location:   cfg.Location(),
		Log:        log,
	})

	// Optional S3 backup after each completed rebalance
	uploader, err := backup.NewUploader(context.Background(), cfg.BackupS3Bucket, cfg.BackupS3Prefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup uploader")
	}
	if uploader != nil {
		go runBackupLoop(eventManager, uploader, db.Path(), log)
	}

	// Initialize scheduler
	sched := scheduler.New(cfg.Location(), log)
	rebalanceJob := scheduler.NewRebalanceJob(rebalanceService, log)
	if err := sched.AddJob(cfg.RebalanceSchedule, rebalanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rebalance job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,
		Pricing: priceService,
		Model:   rebalancing.NewHandlers(repo, rebalanceService, log),
		Events:  eventManager,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// runBackupLoop uploads the database after every completed rebalance
func runBackupLoop(manager *events.Manager, uploader *backup.Uploader, dbPath string, log zerolog.Logger) {
	ch, cancel := manager.Subscribe()
	defer cancel()

	for event := range ch {
		if event.Type != events.RebalanceCompleted {
			continue
		}

		ctx, cancelUpload := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := uploader.UploadFile(ctx, dbPath); err != nil {
			log.Error().Err(err).Msg("Database backup failed")
		} else {
			manager.Emit(events.BackupCompleted, map[string]string{"path": dbPath})
		}
		cancelUpload()
	}
}
