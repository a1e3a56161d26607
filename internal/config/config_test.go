package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	if content == "" {
		return filepath.Join(tmpDir, "nonexistent.yaml")
	}
	configFile := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(content), 0600)
	require.NoError(t, err)
	return configFile
}

func TestLoadTrackerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *TrackerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
vendors:
  opensea_url: "http://opensea.local/api/v2"
  opensea_api_key: "os-key"
  coingecko_url: "http://coingecko.local/api/v3"
  http_timeout: "10s"
rate_limit:
  max_workers: 2
  providers:
    opensea:
      requests_per_second: 2
      burst: 3
fetch:
  timeout: "1m"
  max_attempts: 3
  page_limit: 50
  live_grace: "10m"
collections:
  - slug: gu-origins
    display_name: GU Origins
    contract_address: "0x209e639a0EC166Ac7a1A4bA41968fa967dB30221"
    fixed_supply: 9993
  - slug: genuine-undead
    display_name: Genuine Undead
    contract_address: "0x39509d8e1dd96cc8bad301ea65c75c7deb52374c"
migration:
  burned_count: 30
  pairs:
    - from: gu-origins
      to: genuine-undead
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
monitoring:
  enabled: false
  migration_spike_ratio: 3
  floor_drop_percent: 25.5
schedule:
  cron: "0 30 13 * * *"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *TrackerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "http://opensea.local/api/v2", cfg.Vendors.OpenSeaURL)
				assert.Equal(t, "os-key", cfg.Vendors.OpenSeaAPIKey)
				assert.Equal(t, 10*time.Second, cfg.Vendors.HTTPTimeout)
				assert.Equal(t, 2, cfg.RateLimit.MaxWorkers)
				assert.InDelta(t, 2.0, cfg.RateLimit.Providers["opensea"].RequestsPerSecond, 0.0001)
				assert.Equal(t, 3, cfg.RateLimit.Providers["opensea"].Burst)
				assert.Equal(t, time.Minute, cfg.Fetch.Timeout)
				assert.Equal(t, uint64(3), cfg.Fetch.MaxAttempts)
				assert.Equal(t, 50, cfg.Fetch.PageLimit)
				assert.Equal(t, 10*time.Minute, cfg.Fetch.LiveGrace)
				require.Len(t, cfg.Collections, 2)
				require.NotNil(t, cfg.Collections[0].FixedSupply)
				assert.Equal(t, int64(9993), *cfg.Collections[0].FixedSupply)
				assert.Nil(t, cfg.Collections[1].FixedSupply)
				assert.Equal(t, domain.ChainEthereumMainnet, cfg.Collections[1].Chain)
				assert.Equal(t, int64(30), cfg.Migration.BurnedCount)
				assert.Equal(t, domain.MigrationPair{From: "gu-origins", To: "genuine-undead"}, cfg.Migration.PrimaryPair())
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "0 30 13 * * *", cfg.Schedule.Cron)
				assert.False(t, cfg.Monitoring.Enabled)
				assert.InDelta(t, 3.0, cfg.Monitoring.MigrationSpikeRatio, 0.0001)
				assert.InDelta(t, 2.0, cfg.Monitoring.VolumeSpikeRatio, 0.0001)
				assert.InDelta(t, 25.5, cfg.Monitoring.FloorDropPercent, 0.0001)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *TrackerConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "https://api.opensea.io/api/v2", cfg.Vendors.OpenSeaURL)
				assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Vendors.CoinGeckoURL)
				assert.Equal(t, 5*time.Minute, cfg.Fetch.Timeout)
				assert.Equal(t, 2*time.Second, cfg.Fetch.InitialInterval)
				assert.Equal(t, uint64(5), cfg.Fetch.MaxAttempts)
				assert.Equal(t, time.Duration(0), cfg.Fetch.LiveGrace)
				assert.True(t, cfg.Monitoring.Enabled)
				assert.InDelta(t, 1.5, cfg.Monitoring.MigrationSpikeRatio, 0.0001)
				assert.InDelta(t, 50.0, cfg.Monitoring.FloorDropPercent, 0.0001)
				assert.Equal(t, 4, cfg.RateLimit.MaxWorkers)
				assert.Contains(t, cfg.RateLimit.Providers, domain.PROVIDER_OPENSEA)
				assert.Contains(t, cfg.RateLimit.Providers, domain.PROVIDER_COINGECKO)
				assert.Equal(t, domain.DEFAULT_BURNED_COUNT, cfg.Migration.BurnedCount)
				assert.Equal(t, domain.DefaultCollections(), cfg.Collections)
				assert.Equal(t, domain.DefaultMigrationPairs(), cfg.Migration.Pairs)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, "2s", cfg.NATS.ReconnectWait.String())
				assert.Empty(t, cfg.NATS.URL)
				assert.Equal(t, "0 0 14 * * *", cfg.Schedule.Cron)
			},
		},
		{
			name:        "missing config file",
			configFile:  "",
			expectError: false,
			validate: func(t *testing.T, cfg *TrackerConfig) {
				assert.Len(t, cfg.Collections, 2)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "pair with unknown collection",
			configFile: `
migration:
  pairs:
    - from: gu-origins
      to: unknown
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "invalid collection address",
			configFile: `
collections:
  - slug: broken
    contract_address: "0x123"
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "testnet collections",
			configFile: `
collections:
  - slug: gu-origins
    chain: "eip155:11155111"
    contract_address: "0x209e639a0EC166Ac7a1A4bA41968fa967dB30221"
  - slug: genuine-undead
    chain: "eip155:11155111"
    contract_address: "0x39509d8e1dd96cc8bad301ea65c75c7deb52374c"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *TrackerConfig) {
				require.Len(t, cfg.Collections, 2)
				assert.Equal(t, domain.ChainEthereumSepolia, cfg.Collections[0].Chain)
				assert.Equal(t, domain.ChainEthereumSepolia, cfg.Collections[1].Chain)
			},
		},
		{
			name: "unsupported collection chain",
			configFile: `
collections:
  - slug: gu-origins
    chain: "tezos:mainnet"
    contract_address: "0x209e639a0EC166Ac7a1A4bA41968fa967dB30221"
  - slug: genuine-undead
    contract_address: "0x39509d8e1dd96cc8bad301ea65c75c7deb52374c"
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "negative monitoring threshold",
			configFile: `
monitoring:
  floor_drop_percent: -10
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "duplicate collection slug",
			configFile: `
collections:
  - slug: gu-origins
    contract_address: "0x209e639a0EC166Ac7a1A4bA41968fa967dB30221"
  - slug: gu-origins
    contract_address: "0x39509d8e1dd96cc8bad301ea65c75c7deb52374c"
`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfig(t, tt.configFile)
			envDir := t.TempDir()

			cfg, err := LoadTrackerConfig(configFile, envDir)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadWorkerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *WorkerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  dbname: testdb
temporal:
  host_port: "temporal:7233"
  namespace: "gu"
  task_queue: "daily"
  cron_schedule: "0 15 * * *"
  max_concurrent_activity_execution_size: 4
`,
			expectError: false,
			validate: func(t *testing.T, cfg *WorkerConfig) {
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
				assert.Equal(t, "gu", cfg.Temporal.Namespace)
				assert.Equal(t, "daily", cfg.Temporal.TaskQueue)
				assert.Equal(t, "0 15 * * *", cfg.Temporal.CronSchedule)
				assert.Equal(t, 4, cfg.Temporal.MaxConcurrentActivityExecutionSize)
				assert.Len(t, cfg.Collections, 2)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
`,
			expectError: false,
			validate: func(t *testing.T, cfg *WorkerConfig) {
				assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
				assert.Equal(t, "default", cfg.Temporal.Namespace)
				assert.Equal(t, "gu-migration-tracker", cfg.Temporal.TaskQueue)
				assert.Equal(t, "gu-daily-run", cfg.Temporal.WorkflowID)
				assert.Equal(t, "0 14 * * *", cfg.Temporal.CronSchedule)
				assert.Equal(t, 2, cfg.Temporal.MaxConcurrentActivityExecutionSize)
				assert.Equal(t, domain.DEFAULT_BURNED_COUNT, cfg.Migration.BurnedCount)
			},
		},
		{
			name:        "missing config file",
			configFile:  "",
			expectError: false,
			validate:    nil,
		},
		{
			name: "pool smaller than activity concurrency",
			configFile: `
database:
  max_open_conns: 4
temporal:
  max_concurrent_activity_execution_size: 4
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "default pool with high activity concurrency",
			configFile: `
temporal:
  max_concurrent_activity_execution_size: 8
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "non positive activity concurrency",
			configFile: `
temporal:
  max_concurrent_activity_execution_size: 0
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "pool larger than activity concurrency",
			configFile: `
database:
  max_open_conns: 10
temporal:
  max_concurrent_activity_execution_size: 8
`,
			expectError: false,
			validate: func(t *testing.T, cfg *WorkerConfig) {
				assert.Equal(t, 10, cfg.Database.MaxOpenConns)
				assert.Equal(t, 8, cfg.Temporal.MaxConcurrentActivityExecutionSize)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				temporal:
				  max_concurrent_activity_execution_size: invalid
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfig(t, tt.configFile)
			envDir := t.TempDir()

			cfg, err := LoadWorkerConfig(configFile, envDir)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "db.internal",
				Port:     6543,
				User:     "tracker",
				Password: "p@ssw0rd!",
				DBName:   "gu",
				SSLMode:  "disable",
			},
			expected: "host=db.internal port=6543 user=tracker password=p@ssw0rd! dbname=gu sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// Viper uses the GU_TRACKER_ prefix
	envFile := filepath.Join(envDir, ".env")
	envContent := `GU_TRACKER_DEBUG=true
GU_TRACKER_DATABASE_HOST=env-host
GU_TRACKER_DATABASE_PORT=6432
GU_TRACKER_VENDORS_OPENSEA_API_KEY=env-key
GU_TRACKER_MIGRATION_BURNED_COUNT=27
`
	err = os.WriteFile(envFile, []byte(envContent), 0600)
	require.NoError(t, err)

	// godotenv.Overload sets process environment variables
	t.Cleanup(func() {
		for _, key := range []string{
			"GU_TRACKER_DEBUG",
			"GU_TRACKER_DATABASE_HOST",
			"GU_TRACKER_DATABASE_PORT",
			"GU_TRACKER_VENDORS_OPENSEA_API_KEY",
			"GU_TRACKER_MIGRATION_BURNED_COUNT",
		} {
			_ = os.Unsetenv(key)
		}
	})

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
vendors:
  opensea_api_key: file-key
`
	err = os.WriteFile(configPath, []byte(configFile), 0600)
	require.NoError(t, err)

	cfg, err := LoadTrackerConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "env-key", cfg.Vendors.OpenSeaAPIKey)
	assert.Equal(t, int64(27), cfg.Migration.BurnedCount)
}
