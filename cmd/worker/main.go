package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/analytics"
	"github.com/feral-file/gu-migration-tracker/internal/config"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/messaging"
	"github.com/feral-file/gu-migration-tracker/internal/migration"
	"github.com/feral-file/gu-migration-tracker/internal/monitoring"
	"github.com/feral-file/gu-migration-tracker/internal/pipeline"
	"github.com/feral-file/gu-migration-tracker/internal/providers/jetstream"
	"github.com/feral-file/gu-migration-tracker/internal/providers/temporal"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/coingecko"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/opensea"
	"github.com/feral-file/gu-migration-tracker/internal/ratelimit"
	"github.com/feral-file/gu-migration-tracker/internal/source"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/workflows"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Directory holding the .env files")
	schedule   = flag.Bool("schedule", true, "Start the daily cron workflow if it is not running")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "worker",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting tracker worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	clockAdapter := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Vendors.HTTPTimeout)

	rateLimitProxy, err := ratelimit.NewProxy(cfg.RateLimit)
	if err != nil {
		logger.Fatal("Failed to create rate limit proxy", zap.Error(err))
	}
	defer func() {
		if err := rateLimitProxy.Close(); err != nil {
			logger.Warn("Failed to close rate limit proxy", zap.Error(err))
		}
	}()

	// Initialize vendors and sources
	openseaClient := opensea.NewClient(httpClient, rateLimitProxy, cfg.Vendors.OpenSeaURL, cfg.Vendors.OpenSeaAPIKey, jsonAdapter)
	coingeckoClient := coingecko.NewClient(httpClient, rateLimitProxy, cfg.Vendors.CoinGeckoURL, cfg.Vendors.CoinGeckoAPIKey, jsonAdapter)

	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.Fatal("Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
	}

	var monitor monitoring.Monitor
	if cfg.Monitoring.Enabled {
		monitor = monitoring.NewMonitor(dataStore, cfg.Collections, cfg.Migration.PrimaryPair(), monitoring.Thresholds{
			MigrationSpikeRatio: decimal.NewFromFloat(cfg.Monitoring.MigrationSpikeRatio),
			VolumeSpikeRatio:    decimal.NewFromFloat(cfg.Monitoring.VolumeSpikeRatio),
			FloorDropPercent:    decimal.NewFromFloat(cfg.Monitoring.FloorDropPercent),
		})
	}

	runner, err := pipeline.NewRunner(pipeline.Config{
		Collections: cfg.Collections,
		Fetch:       cfg.Fetch,
	}, pipeline.Deps{
		Store:      dataStore,
		Snapshots:  source.NewOpenSeaSnapshotSource(openseaClient, clockAdapter, cfg.Fetch.PageLimit, cfg.Fetch.MaxPages, cfg.Fetch.LiveGrace),
		Prices:     source.NewCoinGeckoPriceSource(coingeckoClient, clockAdapter),
		Detector:   migration.NewDetector(dataStore, cfg.Migration.Pairs),
		Calculator: analytics.NewCalculator(dataStore, cfg.Migration.PrimaryPair(), cfg.Migration.BurnedCount),
		Monitor:    monitor,
		Publisher:  publisher,
		Clock:      clockAdapter,
	})
	if err != nil {
		logger.Fatal("Failed to create runner", zap.Error(err))
	}
	defer runner.Close()

	// Connect to Temporal
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporal.NewZapLoggerAdapter(logger.Default()),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err), zap.String("host_port", cfg.Temporal.HostPort))
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	// Create Temporal worker
	temporalWorker := worker.New(
		temporalClient,
		cfg.Temporal.TaskQueue,
		worker.Options{
			MaxConcurrentActivityExecutionSize: cfg.Temporal.MaxConcurrentActivityExecutionSize,
			WorkerActivitiesPerSecond:          cfg.Temporal.WorkerActivitiesPerSecond,
			Interceptors:                       []interceptor.WorkerInterceptor{temporal.NewSentryActivityInterceptor()},
		})
	logger.Info("Created Temporal worker", zap.String("taskQueue", cfg.Temporal.TaskQueue))

	executor := workflows.NewExecutor(runner)
	trackerWorker := workflows.NewWorker(executor, workflows.WorkerConfig{
		ActivityTimeout: cfg.Fetch.Timeout * 3,
	})

	// Register workflows and activities
	temporalWorker.RegisterWorkflow(trackerWorker.DailyRun)
	temporalWorker.RegisterWorkflow(trackerWorker.Backfill)
	temporalWorker.RegisterActivity(executor.RunDailyPipeline)
	logger.Info("Registered workflows and activities")

	// Start worker
	if err := temporalWorker.Start(); err != nil {
		logger.Fatal("Failed to start worker", zap.Error(err))
	}
	logger.Info("Worker started and listening for tasks")

	if *schedule {
		err := workflows.StartDailySchedule(ctx, temporalClient, trackerWorker, workflows.ScheduleConfig{
			WorkflowID:   cfg.Temporal.WorkflowID,
			TaskQueue:    cfg.Temporal.TaskQueue,
			CronSchedule: cfg.Temporal.CronSchedule,
		})
		if err != nil {
			logger.Error(err, zap.String("workflow_id", cfg.Temporal.WorkflowID))
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down worker...")
	temporalWorker.Stop()
	logger.Info("Worker stopped")
}
