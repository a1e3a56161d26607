package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration for run notifications
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// TemporalConfig holds Temporal configuration
type TemporalConfig struct {
	HostPort                           string  `mapstructure:"host_port"`
	Namespace                          string  `mapstructure:"namespace"`
	TaskQueue                          string  `mapstructure:"task_queue"`
	WorkflowID                         string  `mapstructure:"workflow_id"`
	CronSchedule                       string  `mapstructure:"cron_schedule"`
	MaxConcurrentActivityExecutionSize int     `mapstructure:"max_concurrent_activity_execution_size"`
	WorkerActivitiesPerSecond          float64 `mapstructure:"worker_activities_per_second"`
}

// VendorsConfig holds vendor API configurations
type VendorsConfig struct {
	OpenSeaURL      string        `mapstructure:"opensea_url"`
	OpenSeaAPIKey   string        `mapstructure:"opensea_api_key"`
	CoinGeckoURL    string        `mapstructure:"coingecko_url"`
	CoinGeckoAPIKey string        `mapstructure:"coingecko_api_key"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
}

// RateLimitConfig holds the rate limit for a single provider
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxQueueTime      time.Duration `mapstructure:"max_queue_time"`
}

// RateLimiterConfig holds the rate limit proxy configuration
type RateLimiterConfig struct {
	MaxWorkers   int                        `mapstructure:"max_workers"`
	MaxQueueSize int                        `mapstructure:"max_queue_size"`
	Providers    map[string]RateLimitConfig `mapstructure:"providers"`
}

// FetchConfig bounds the retries of a single upstream fetch
type FetchConfig struct {
	// Timeout is the hard deadline of one fetch including all retries
	Timeout         time.Duration `mapstructure:"timeout"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxAttempts     uint64        `mapstructure:"max_attempts"`
	// PageLimit is the page size used when listing holders
	PageLimit int `mapstructure:"page_limit"`
	// MaxPages caps holder pagination
	MaxPages int `mapstructure:"max_pages"`
	// LiveGrace is how long after UTC midnight the live marketplace state may
	// still be recorded as the previous date's snapshot
	LiveGrace time.Duration `mapstructure:"live_grace"`
}

// MigrationConfig holds the migration tracking configuration
type MigrationConfig struct {
	// Pairs lists the tracked source -> destination collection pairs.
	// The first pair drives the daily analytics.
	Pairs []domain.MigrationPair `mapstructure:"pairs"`
	// BurnedCount is added once to the destination supply to get the total migrated count
	BurnedCount int64 `mapstructure:"burned_count"`
}

// MonitoringConfig holds the thresholds of the checks run after a date is analyzed
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MigrationSpikeRatio flags a date whose detected migrations exceed this multiple of the day before
	MigrationSpikeRatio float64 `mapstructure:"migration_spike_ratio"`
	// VolumeSpikeRatio flags a 24h volume exceeding this multiple of the previous snapshot
	VolumeSpikeRatio float64 `mapstructure:"volume_spike_ratio"`
	// FloorDropPercent flags a floor price drop larger than this percentage
	FloorDropPercent float64 `mapstructure:"floor_drop_percent"`
}

// ScheduleConfig holds the in-process scheduler configuration
type ScheduleConfig struct {
	// Cron is a robfig/cron spec with seconds, e.g. "0 0 14 * * *"
	Cron string `mapstructure:"cron"`
}

// defaultMaxOpenConns is the database pool size used when none is configured
const defaultMaxOpenConns = 5

// TrackerConfig holds configuration for the tracker program
type TrackerConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig      `mapstructure:"database"`
	Vendors     VendorsConfig       `mapstructure:"vendors"`
	RateLimit   RateLimiterConfig   `mapstructure:"rate_limit"`
	Fetch       FetchConfig         `mapstructure:"fetch"`
	Collections []domain.Collection `mapstructure:"collections"`
	Migration   MigrationConfig     `mapstructure:"migration"`
	NATS        NATSConfig          `mapstructure:"nats"`
	Monitoring  MonitoringConfig    `mapstructure:"monitoring"`
	Schedule    ScheduleConfig      `mapstructure:"schedule"`
}

// WorkerConfig holds configuration for the Temporal worker
type WorkerConfig struct {
	TrackerConfig `mapstructure:",squash"`
	Temporal      TemporalConfig `mapstructure:"temporal"`
}

// LoadTrackerConfig loads configuration for the tracker program
func LoadTrackerConfig(configFile string, envPath string) (*TrackerConfig, error) {
	v := configureViper("tracker", configFile, envPath)
	setTrackerDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg TrackerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWorkerConfig loads configuration for the Temporal worker
func LoadWorkerConfig(configFile string, envPath string) (*WorkerConfig, error) {
	v := configureViper("worker", configFile, envPath)
	setTrackerDefaults(v)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "gu-migration-tracker")
	v.SetDefault("temporal.workflow_id", "gu-daily-run")
	v.SetDefault("temporal.cron_schedule", "0 14 * * *")
	v.SetDefault("temporal.max_concurrent_activity_execution_size", 2)
	v.SetDefault("temporal.worker_activities_per_second", 1)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setTrackerDefaults sets the defaults shared by every service
func setTrackerDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("vendors.opensea_url", "https://api.opensea.io/api/v2")
	v.SetDefault("vendors.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("vendors.http_timeout", "30s")
	v.SetDefault("rate_limit.max_workers", 4)
	v.SetDefault("rate_limit.max_queue_size", 256)
	v.SetDefault("rate_limit.providers.opensea.requests_per_second", 4)
	v.SetDefault("rate_limit.providers.opensea.burst", 1)
	v.SetDefault("rate_limit.providers.opensea.max_queue_time", "2m")
	v.SetDefault("rate_limit.providers.coingecko.requests_per_second", 0.5)
	v.SetDefault("rate_limit.providers.coingecko.burst", 1)
	v.SetDefault("rate_limit.providers.coingecko.max_queue_time", "1m")
	v.SetDefault("fetch.timeout", "5m")
	v.SetDefault("fetch.initial_interval", "2s")
	v.SetDefault("fetch.max_interval", "30s")
	v.SetDefault("fetch.max_attempts", 5)
	v.SetDefault("fetch.page_limit", 200)
	v.SetDefault("fetch.max_pages", 100)
	v.SetDefault("fetch.live_grace", "0s")
	v.SetDefault("migration.burned_count", domain.DEFAULT_BURNED_COUNT)
	v.SetDefault("nats.stream_name", "GU_TRACKER")
	v.SetDefault("nats.subject_prefix", "tracker")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "gu-migration-tracker")
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.migration_spike_ratio", 1.5)
	v.SetDefault("monitoring.volume_spike_ratio", 2.0)
	v.SetDefault("monitoring.floor_drop_percent", 50)
	v.SetDefault("schedule.cron", "0 0 14 * * *")
}

// readConfig reads the config file, falling back to environment variables when there is none
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// finalize applies structural defaults viper cannot express and validates the result
func (c *TrackerConfig) finalize() error {
	if len(c.Collections) == 0 {
		c.Collections = domain.DefaultCollections()
	}
	if len(c.Migration.Pairs) == 0 {
		c.Migration.Pairs = domain.DefaultMigrationPairs()
	}

	slugs := make(map[string]bool, len(c.Collections))
	for i := range c.Collections {
		if c.Collections[i].Chain == "" {
			c.Collections[i].Chain = domain.ChainEthereumMainnet
		}
		if err := c.Collections[i].Validate(); err != nil {
			return fmt.Errorf("invalid collection config: %w", err)
		}
		if slugs[c.Collections[i].Slug] {
			return fmt.Errorf("duplicate collection slug %q", c.Collections[i].Slug)
		}
		slugs[c.Collections[i].Slug] = true
	}

	for _, pair := range c.Migration.Pairs {
		if !slugs[pair.From] || !slugs[pair.To] {
			return fmt.Errorf("migration pair %s references an unknown collection", pair)
		}
		if pair.From == pair.To {
			return fmt.Errorf("migration pair %s must name two different collections", pair)
		}
	}

	if c.Migration.BurnedCount < 0 {
		return errors.New("migration.burned_count must not be negative")
	}

	if c.Monitoring.MigrationSpikeRatio < 0 || c.Monitoring.VolumeSpikeRatio < 0 || c.Monitoring.FloorDropPercent < 0 {
		return errors.New("monitoring thresholds must not be negative")
	}

	return nil
}

// finalize validates the worker settings on top of the tracker ones.
// Every concurrent daily run activity pins one pooled connection for its date
// lock, so the pool must keep at least one connection free for the locked work.
func (c *WorkerConfig) finalize() error {
	if err := c.TrackerConfig.finalize(); err != nil {
		return err
	}

	concurrency := c.Temporal.MaxConcurrentActivityExecutionSize
	if concurrency <= 0 {
		return errors.New("temporal.max_concurrent_activity_execution_size must be positive")
	}

	maxOpenConns := c.Database.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = defaultMaxOpenConns
	}
	if maxOpenConns <= concurrency {
		return fmt.Errorf("database.max_open_conns (%d) must exceed temporal.max_concurrent_activity_execution_size (%d)",
			maxOpenConns, concurrency)
	}

	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("GU_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		// Base
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Vendors
		"vendors.opensea_url",
		"vendors.opensea_api_key",
		"vendors.coingecko_url",
		"vendors.coingecko_api_key",
		"vendors.http_timeout",
		// Fetch
		"fetch.timeout",
		"fetch.initial_interval",
		"fetch.max_interval",
		"fetch.max_attempts",
		"fetch.page_limit",
		"fetch.max_pages",
		"fetch.live_grace",
		// Migration
		"migration.burned_count",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Monitoring
		"monitoring.enabled",
		"monitoring.migration_spike_ratio",
		"monitoring.volume_spike_ratio",
		"monitoring.floor_drop_percent",
		// Schedule
		"schedule.cron",
		// Temporal
		"temporal.host_port",
		"temporal.namespace",
		"temporal.task_queue",
		"temporal.workflow_id",
		"temporal.cron_schedule",
		"temporal.max_concurrent_activity_execution_size",
		"temporal.worker_activities_per_second",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PrimaryPair returns the migration pair that drives the daily analytics
func (c *MigrationConfig) PrimaryPair() domain.MigrationPair {
	if len(c.Pairs) == 0 {
		return domain.DefaultMigrationPairs()[0]
	}
	return c.Pairs[0]
}
