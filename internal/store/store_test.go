package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// StoreTestSuite provides the interface for running store tests against different implementations
type StoreTestSuite struct {
	Store Store
	// InitDB should be called before each test to initialize the database
	InitDB func(t *testing.T) Store
	// CleanupDB should be called after each test to clean up the database
	CleanupDB func(t *testing.T)
}

// =============================================================================
// Test Data Builders
// =============================================================================

var (
	day1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	day3 = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
)

const (
	holderA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	holderB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// seedCollections registers the default collections and returns origins and undead
func seedCollections(t *testing.T, store Store) (schema.Collection, schema.Collection) {
	t.Helper()
	collections, err := store.UpsertCollections(context.Background(), domain.DefaultCollections())
	require.NoError(t, err)
	require.Len(t, collections, 2)
	return collections[0], collections[1]
}

// buildTestStats creates collection stats with the given holders
func buildTestStats(slug string, supply int64, floor string, holders domain.HolderSet) domain.CollectionStats {
	owners := int64(len(holders))
	return domain.CollectionStats{
		Slug:             slug,
		TotalSupply:      supply,
		FloorPriceNative: decimal.RequireFromString(floor),
		Holders:          holders,
		NumOwners:        &owners,
	}
}

func stringPtr(s string) *string {
	return &s
}

// =============================================================================
// Test: Collections
// =============================================================================

func testUpsertCollections(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("registers collections in input order", func(t *testing.T) {
		origins, undead := seedCollections(t, store)

		assert.Equal(t, domain.ORIGINS_SLUG, origins.Slug)
		assert.Equal(t, domain.UNDEAD_SLUG, undead.Slug)
		assert.NotZero(t, origins.ID)
		assert.NotEqual(t, origins.ID, undead.ID)
		assert.Equal(t, "0x209e639a0ec166ac7a1a4ba41968fa967db30221", origins.ContractAddress)
		require.NotNil(t, origins.FixedSupply)
		assert.Equal(t, domain.ORIGINS_FIXED_SUPPLY, *origins.FixedSupply)
		assert.Nil(t, undead.FixedSupply)
	})

	t.Run("re-registering keeps ids and updates attributes", func(t *testing.T) {
		origins, _ := seedCollections(t, store)

		renamed := domain.DefaultCollections()[:1]
		renamed[0].DisplayName = "Origins"
		collections, err := store.UpsertCollections(ctx, renamed)
		require.NoError(t, err)
		require.Len(t, collections, 1)
		assert.Equal(t, origins.ID, collections[0].ID)
		assert.Equal(t, "Origins", collections[0].DisplayName)
	})

	t.Run("invalid collection is rejected", func(t *testing.T) {
		_, err := store.UpsertCollections(ctx, []domain.Collection{{Slug: "bad", ContractAddress: "nope"}})
		assert.Error(t, err)
	})

	t.Run("get by slug", func(t *testing.T) {
		_, undead := seedCollections(t, store)

		got, err := store.GetCollectionBySlug(ctx, domain.UNDEAD_SLUG)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, undead.ID, got.ID)

		missing, err := store.GetCollectionBySlug(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

// =============================================================================
// Test: Snapshots
// =============================================================================

func testSaveSnapshot(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("stores snapshot and holders", func(t *testing.T) {
		origins, _ := seedCollections(t, store)
		volume := decimal.RequireFromString("1.5")

		stats := buildTestStats(domain.ORIGINS_SLUG, 9993, "0.0575", domain.HolderSet{
			"1": holderA,
			"2": "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB",
		})
		stats.Volume24hNative = &volume

		snapshot, created, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
			CollectionID: origins.ID,
			Date:         day1.Add(15 * time.Hour),
			Stats:        stats,
		})
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, snapshot)
		assert.Equal(t, int64(9993), snapshot.TotalSupply)
		assert.True(t, decimal.RequireFromString("0.0575").Equal(snapshot.FloorPriceEth))
		assert.Equal(t, 2, snapshot.HolderCount)
		assert.True(t, snapshot.Volume24hEth.Valid)
		assert.False(t, snapshot.MarketCapEth.Valid)

		stored, err := store.GetDailySnapshot(ctx, origins.ID, day1)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, snapshot.ID, stored.ID)
		assert.Equal(t, "2025-06-01", domain.FormatDate(stored.SnapshotDate))

		holders, err := store.GetHolders(ctx, origins.ID, day1)
		require.NoError(t, err)
		assert.Equal(t, domain.HolderSet{"1": holderA, "2": holderB}, holders)
	})

	t.Run("second save of the same date keeps the first snapshot", func(t *testing.T) {
		origins, _ := seedCollections(t, store)

		first, created, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
			CollectionID: origins.ID,
			Date:         day2,
			Stats:        buildTestStats(domain.ORIGINS_SLUG, 9993, "0.05", domain.HolderSet{"1": holderA}),
		})
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
			CollectionID: origins.ID,
			Date:         day2,
			Stats:        buildTestStats(domain.ORIGINS_SLUG, 9000, "0.09", domain.HolderSet{"1": holderB, "7": holderB}),
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(9993), second.TotalSupply)
		assert.True(t, decimal.RequireFromString("0.05").Equal(second.FloorPriceEth))

		holders, err := store.GetHolders(ctx, origins.ID, day2)
		require.NoError(t, err)
		assert.Equal(t, domain.HolderSet{"1": holderA}, holders)
	})

	t.Run("snapshot without holders", func(t *testing.T) {
		_, undead := seedCollections(t, store)

		snapshot, created, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
			CollectionID: undead.ID,
			Date:         day1,
			Stats:        buildTestStats(domain.UNDEAD_SLUG, 0, "0", nil),
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 0, snapshot.HolderCount)

		holders, err := store.GetHolders(ctx, undead.ID, day1)
		require.NoError(t, err)
		assert.Empty(t, holders)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		origins, _ := seedCollections(t, store)

		tests := []struct {
			name  string
			stats domain.CollectionStats
		}{
			{"negative supply", buildTestStats(domain.ORIGINS_SLUG, -1, "0.1", nil)},
			{"negative floor", buildTestStats(domain.ORIGINS_SLUG, 1, "-0.1", nil)},
			{"invalid token id", buildTestStats(domain.ORIGINS_SLUG, 1, "0.1", domain.HolderSet{"abc": holderA})},
			{"invalid holder", buildTestStats(domain.ORIGINS_SLUG, 1, "0.1", domain.HolderSet{"1": "not-an-address"})},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
					CollectionID: origins.ID,
					Date:         day3,
					Stats:        tt.stats,
				})
				assert.Error(t, err)
			})
		}

		snapshot, err := store.GetDailySnapshot(ctx, origins.ID, day3)
		require.NoError(t, err)
		assert.Nil(t, snapshot)
	})

	t.Run("missing snapshot returns nil", func(t *testing.T) {
		origins, _ := seedCollections(t, store)

		snapshot, err := store.GetDailySnapshot(ctx, origins.ID, day1.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.Nil(t, snapshot)
	})
}

func testGetLatestSnapshotDateBefore(t *testing.T, store Store) {
	ctx := context.Background()
	origins, _ := seedCollections(t, store)

	latest, err := store.GetLatestSnapshotDateBefore(ctx, origins.ID, day3)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, d := range []time.Time{day1, day3} {
		_, _, err := store.SaveSnapshot(ctx, SaveSnapshotInput{
			CollectionID: origins.ID,
			Date:         d,
			Stats:        buildTestStats(domain.ORIGINS_SLUG, 9993, "0.05", nil),
		})
		require.NoError(t, err)
	}

	latest, err = store.GetLatestSnapshotDateBefore(ctx, origins.ID, day3)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2025-06-01", domain.FormatDate(*latest))

	latest, err = store.GetLatestSnapshotDateBefore(ctx, origins.ID, day1)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

// =============================================================================
// Test: Migrations
// =============================================================================

func testCreateMigrationEvents(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("inserts new migrations and skips recorded ones", func(t *testing.T) {
		origins, undead := seedCollections(t, store)

		inputs := []CreateMigrationInput{
			{TokenID: "1", FromCollectionID: origins.ID, ToCollectionID: undead.ID, DetectedDate: day2, PreviousHolder: stringPtr(holderA), CurrentHolder: stringPtr(holderA)},
			{TokenID: "2", FromCollectionID: origins.ID, ToCollectionID: undead.ID, DetectedDate: day2, PreviousHolder: stringPtr(holderB)},
		}
		inserted, err := store.CreateMigrationEvents(ctx, inputs)
		require.NoError(t, err)
		require.Len(t, inserted, 2)
		assert.NotZero(t, inserted[0].ID)
		assert.Equal(t, "1", inserted[0].TokenID)
		assert.Equal(t, "2", inserted[1].TokenID)
		assert.Nil(t, inserted[1].CurrentHolder)

		// Token 1 again on a later date plus a new token 3
		inserted, err = store.CreateMigrationEvents(ctx, []CreateMigrationInput{
			{TokenID: "1", FromCollectionID: origins.ID, ToCollectionID: undead.ID, DetectedDate: day3},
			{TokenID: "3", FromCollectionID: origins.ID, ToCollectionID: undead.ID, DetectedDate: day3},
		})
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "3", inserted[0].TokenID)

		day2Migrations, err := store.ListMigrationsByDate(ctx, day2)
		require.NoError(t, err)
		require.Len(t, day2Migrations, 2)
		assert.Equal(t, "2025-06-02", domain.FormatDate(day2Migrations[0].DetectedDate))

		count, err := store.CountMigrationsByDate(ctx, origins.ID, undead.ID, day2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = store.CountMigrationsByDate(ctx, origins.ID, undead.ID, day3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		total, err := store.CountMigrations(ctx, origins.ID, undead.ID, day3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		total, err = store.CountMigrations(ctx, origins.ID, undead.ID, day1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)

		stats, err := store.GetMigrationStats(ctx, day1, day3)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "2025-06-02", domain.FormatDate(stats[0].Date))
		assert.Equal(t, int64(2), stats[0].Count)
		assert.Equal(t, "2025-06-03", domain.FormatDate(stats[1].Date))
		assert.Equal(t, int64(1), stats[1].Count)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		inserted, err := store.CreateMigrationEvents(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, inserted)
	})

	t.Run("same source and destination is rejected", func(t *testing.T) {
		origins, _ := seedCollections(t, store)

		_, err := store.CreateMigrationEvents(ctx, []CreateMigrationInput{
			{TokenID: "1", FromCollectionID: origins.ID, ToCollectionID: origins.ID, DetectedDate: day2},
		})
		assert.Error(t, err)
	})

	t.Run("invalid token id is rejected", func(t *testing.T) {
		origins, undead := seedCollections(t, store)

		_, err := store.CreateMigrationEvents(ctx, []CreateMigrationInput{
			{TokenID: "0x1", FromCollectionID: origins.ID, ToCollectionID: undead.ID, DetectedDate: day2},
		})
		assert.Error(t, err)
	})
}

// =============================================================================
// Test: Exchange rates
// =============================================================================

func testEthPrice(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("first stored rate wins", func(t *testing.T) {
		missing, err := store.GetEthPrice(ctx, day1)
		require.NoError(t, err)
		assert.Nil(t, missing)

		stored, err := store.SaveEthPrice(ctx, day1, decimal.RequireFromString("3500"), domain.PROVIDER_COINGECKO)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("3500").Equal(stored.EthPriceUSD))

		stored, err = store.SaveEthPrice(ctx, day1, decimal.RequireFromString("3600"), domain.PROVIDER_COINGECKO)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("3500").Equal(stored.EthPriceUSD))

		got, err := store.GetEthPrice(ctx, day1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, decimal.RequireFromString("3500").Equal(got.EthPriceUSD))
		assert.Equal(t, domain.PROVIDER_COINGECKO, got.Source)
	})

	t.Run("non-positive rate is rejected", func(t *testing.T) {
		_, err := store.SaveEthPrice(ctx, day2, decimal.Zero, domain.PROVIDER_COINGECKO)
		assert.Error(t, err)
	})
}

// =============================================================================
// Test: Analytics
// =============================================================================

func buildTestAnalytics(date time.Time, undeadSupply int64) *schema.DailyAnalytics {
	return &schema.DailyAnalytics{
		AnalyticsDate:        date,
		EthPriceUSD:          decimal.RequireFromString("3500"),
		OriginsFloorEth:      decimal.RequireFromString("0.0575"),
		OriginsSupply:        9993,
		OriginsMarketCapUSD:  decimal.RequireFromString("2011091.25"),
		UndeadFloorEth:       decimal.RequireFromString("0.1"),
		UndeadSupply:         undeadSupply,
		UndeadMarketCapUSD:   decimal.NewFromInt(undeadSupply).Mul(decimal.RequireFromString("350")),
		TotalMigrations:      undeadSupply + domain.DEFAULT_BURNED_COUNT,
		MigrationPercent:     decimal.NewNullDecimal(decimal.RequireFromString("50.15")),
		PriceRatio:           decimal.NewNullDecimal(decimal.RequireFromString("1.73913043")),
		CombinedMarketCapUSD: decimal.RequireFromString("3765941.25"),
	}
}

func testDailyAnalytics(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("upsert replaces the row of a date", func(t *testing.T) {
		row := buildTestAnalytics(day1, 5000)
		require.NoError(t, store.UpsertDailyAnalytics(ctx, row))

		got, err := store.GetDailyAnalytics(ctx, day1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(5000), got.UndeadSupply)
		assert.False(t, got.UndeadFloorChange24h.Valid)
		assert.Nil(t, got.UndeadSupplyChange24h)

		change := int64(11)
		row = buildTestAnalytics(day1, 5011)
		row.UndeadSupplyChange24h = &change
		row.DailyNewMigrations = 11
		row.MigrationEvents = 3
		row.UndeadFloorChange24h = decimal.NewNullDecimal(decimal.RequireFromString("-4.5"))
		require.NoError(t, store.UpsertDailyAnalytics(ctx, row))

		got, err = store.GetDailyAnalytics(ctx, day1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(5011), got.UndeadSupply)
		assert.Equal(t, int64(5037), got.TotalMigrations)
		require.NotNil(t, got.UndeadSupplyChange24h)
		assert.Equal(t, int64(11), *got.UndeadSupplyChange24h)
		assert.Equal(t, int64(11), got.DailyNewMigrations)
		assert.Equal(t, int64(3), got.MigrationEvents)
		assert.True(t, got.UndeadFloorChange24h.Valid)
		assert.True(t, decimal.RequireFromString("-4.5").Equal(got.UndeadFloorChange24h.Decimal))
	})

	t.Run("list in date order", func(t *testing.T) {
		require.NoError(t, store.UpsertDailyAnalytics(ctx, buildTestAnalytics(day3, 5020)))
		require.NoError(t, store.UpsertDailyAnalytics(ctx, buildTestAnalytics(day2, 5015)))

		rows, err := store.ListDailyAnalytics(ctx, day2, day3)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "2025-06-02", domain.FormatDate(rows[0].AnalyticsDate))
		assert.Equal(t, "2025-06-03", domain.FormatDate(rows[1].AnalyticsDate))
	})

	t.Run("missing row returns nil", func(t *testing.T) {
		got, err := store.GetDailyAnalytics(ctx, day1.AddDate(-1, 0, 0))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil row is rejected", func(t *testing.T) {
		assert.Error(t, store.UpsertDailyAnalytics(ctx, nil))
	})
}

// =============================================================================
// Test: Run state
// =============================================================================

func testRunState(t *testing.T, store Store) {
	ctx := context.Background()

	missing, err := store.GetRunState(ctx, day1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	startedAt := time.Now().UTC().Truncate(time.Second)
	state := &schema.RunState{
		RunDate:   day1,
		RunID:     "run-1",
		Stage:     string(domain.RunStageFetching),
		Status:    string(domain.RunStatusRunning),
		Attempts:  1,
		StartedAt: startedAt,
	}
	require.NoError(t, store.SaveRunState(ctx, state))

	got, err := store.GetRunState(ctx, day1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, string(domain.RunStageFetching), got.Stage)
	assert.Nil(t, got.FinishedAt)

	finishedAt := startedAt.Add(time.Minute)
	state.Stage = string(domain.RunStageFetching)
	state.Status = string(domain.RunStatusFailed)
	state.Error = stringPtr("opensea unavailable")
	state.FinishedAt = &finishedAt
	require.NoError(t, store.SaveRunState(ctx, state))

	got, err = store.GetRunState(ctx, day1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, string(domain.RunStatusFailed), got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "opensea unavailable", *got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finishedAt.Equal(*got.FinishedAt))
	assert.Equal(t, 1, got.Attempts)
}

// =============================================================================
// Test: Alerts
// =============================================================================

func testAlerts(t *testing.T, store Store) {
	ctx := context.Background()

	err := store.CreateAlert(ctx, CreateAlertInput{
		Date:     day2,
		Type:     schema.AlertTypePotentialMigration,
		Severity: schema.AlertSeverityInfo,
		Message:  "2 tokens appeared in genuine-undead without an origins record",
		Details:  map[string]interface{}{"token_ids": []string{"10", "11"}},
	})
	require.NoError(t, err)

	err = store.CreateAlert(ctx, CreateAlertInput{
		Date:     day2,
		Type:     schema.AlertTypeRunFailed,
		Severity: schema.AlertSeverityError,
		Message:  "daily run failed",
	})
	require.NoError(t, err)

	alerts, err := store.ListAlerts(ctx, day2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, schema.AlertTypePotentialMigration, alerts[0].Type)
	assert.False(t, alerts[0].Resolved)

	var details struct {
		TokenIDs []string `json:"token_ids"`
	}
	require.NoError(t, json.Unmarshal(alerts[0].Details, &details))
	assert.Equal(t, []string{"10", "11"}, details.TokenIDs)

	assert.Equal(t, schema.AlertTypeRunFailed, alerts[1].Type)
	assert.JSONEq(t, `{}`, string(alerts[1].Details))

	alerts, err = store.ListAlerts(ctx, day1)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

// RunStoreTests runs every store test against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"UpsertCollections", testUpsertCollections},
		{"SaveSnapshot", testSaveSnapshot},
		{"GetLatestSnapshotDateBefore", testGetLatestSnapshotDateBefore},
		{"CreateMigrationEvents", testCreateMigrationEvents},
		{"EthPrice", testEthPrice},
		{"DailyAnalytics", testDailyAnalytics},
		{"RunState", testRunState},
		{"Alerts", testAlerts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
