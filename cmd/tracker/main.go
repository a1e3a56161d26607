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
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/analytics"
	"github.com/feral-file/gu-migration-tracker/internal/config"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/messaging"
	"github.com/feral-file/gu-migration-tracker/internal/migration"
	"github.com/feral-file/gu-migration-tracker/internal/monitoring"
	"github.com/feral-file/gu-migration-tracker/internal/pipeline"
	"github.com/feral-file/gu-migration-tracker/internal/providers/jetstream"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/coingecko"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/opensea"
	"github.com/feral-file/gu-migration-tracker/internal/ratelimit"
	"github.com/feral-file/gu-migration-tracker/internal/scheduler"
	"github.com/feral-file/gu-migration-tracker/internal/source"
	"github.com/feral-file/gu-migration-tracker/internal/store"
)

const (
	modeRun      = "run"
	modeBackfill = "backfill"
	modeCron     = "cron"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Directory holding the .env files")
	mode       = flag.String("mode", modeRun, "run, backfill or cron")
	dateFlag   = flag.String("date", "", "Date to run (YYYY-MM-DD), defaults to today in UTC")
	fromFlag   = flag.String("from", "", "First backfill date (YYYY-MM-DD)")
	toFlag     = flag.String("to", "", "Last backfill date (YYYY-MM-DD), defaults to today in UTC")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadTrackerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "tracker",
			"mode":    *mode,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting GU migration tracker", zap.String("mode", *mode))

	// Create context cancelled on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Rate limit proxy shared by the vendor clients
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
	snapshotSource := source.NewOpenSeaSnapshotSource(openseaClient, clockAdapter, cfg.Fetch.PageLimit, cfg.Fetch.MaxPages, cfg.Fetch.LiveGrace)
	priceSource := source.NewCoinGeckoPriceSource(coingeckoClient, clockAdapter)

	// Optional run notifications
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
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
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
		Snapshots:  snapshotSource,
		Prices:     priceSource,
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

	today := domain.NormalizeDate(clockAdapter.Now())

	switch *mode {
	case modeRun:
		date := today
		if *dateFlag != "" {
			if date, err = domain.ParseDate(*dateFlag); err != nil {
				logger.Fatal("Invalid date", zap.Error(err))
			}
		}
		result := runner.Run(ctx, date)
		if !result.Succeeded() {
			logger.Error(fmt.Errorf("daily run failed: %w", result.Error),
				zap.String("date", domain.FormatDate(date)),
				zap.String("stage", string(result.Stage)),
			)
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
		logger.Info("Daily run finished", zap.String("date", domain.FormatDate(date)), zap.String("run_id", result.RunID))

	case modeBackfill:
		if *fromFlag == "" {
			logger.Fatal("Backfill requires -from")
		}
		from, err := domain.ParseDate(*fromFlag)
		if err != nil {
			logger.Fatal("Invalid from date", zap.Error(err))
		}
		to := today
		if *toFlag != "" {
			if to, err = domain.ParseDate(*toFlag); err != nil {
				logger.Fatal("Invalid to date", zap.Error(err))
			}
		}
		results, err := runner.Backfill(ctx, from, to)
		if err != nil {
			logger.Error(err, zap.Int("completed", len(results)))
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
		logger.Info("Backfill finished", zap.Int("dates", len(results)))

	case modeCron:
		s, err := scheduler.New(ctx, cfg.Schedule.Cron, runner, clockAdapter)
		if err != nil {
			logger.Fatal("Failed to create scheduler", zap.Error(err))
		}
		s.Start()
		logger.Info("Next scheduled run", zap.Time("at", s.NextRun(clockAdapter.Now())))

		<-ctx.Done()
		logger.Info("Shutting down scheduler...")
		s.Stop()

	default:
		logger.Fatal("Unknown mode", zap.String("mode", *mode))
	}
}
