package monitoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/mocks"
	"github.com/feral-file/gu-migration-tracker/internal/monitoring"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

const (
	originsID int64 = 1
	undeadID  int64 = 2
)

var (
	prevDay = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	today   = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	origins = &schema.Collection{ID: originsID, Slug: domain.ORIGINS_SLUG}
	undead  = &schema.Collection{ID: undeadID, Slug: domain.UNDEAD_SLUG}
)

func newMonitor(st store.Store) monitoring.Monitor {
	return monitoring.NewMonitor(st, domain.DefaultCollections(), domain.DefaultMigrationPairs()[0], monitoring.Thresholds{})
}

func snapshot(floor string, supply int64, volume string) *schema.DailySnapshot {
	s := &schema.DailySnapshot{
		TotalSupply:   supply,
		FloorPriceEth: decimal.RequireFromString(floor),
	}
	if volume != "" {
		s.Volume24hEth = decimal.NewNullDecimal(decimal.RequireFromString(volume))
	}
	return s
}

// expectSnapshots sets up the snapshot reads of one collection for today and the previous snapshot date
func expectSnapshots(mockStore *mocks.MockStore, ctx context.Context, collection *schema.Collection, prev time.Time, previous, current *schema.DailySnapshot) {
	mockStore.EXPECT().GetCollectionBySlug(ctx, collection.Slug).Return(collection, nil)
	mockStore.EXPECT().GetDailySnapshot(ctx, collection.ID, today).Return(current, nil)
	mockStore.EXPECT().GetLatestSnapshotDateBefore(ctx, collection.ID, today).Return(&prev, nil)
	mockStore.EXPECT().GetDailySnapshot(ctx, collection.ID, prev).Return(previous, nil)
}

func TestMonitor_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy data records nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		expectSnapshots(mockStore, ctx, origins, prevDay, snapshot("0.06", 9993, "1.0"), snapshot("0.0575", 9993, "1.5"))
		expectSnapshots(mockStore, ctx, undead, prevDay, snapshot("0.04", 5000, "2.0"), snapshot("0.0383", 5011, "2.5"))
		mockStore.EXPECT().GetMigrationStats(ctx, prevDay, today).Return([]store.MigrationDayCount{
			{Date: prevDay, Count: 10},
			{Date: today, Count: 12},
		}, nil)
		mockStore.EXPECT().ListAlerts(gomock.Any(), gomock.Any()).Times(0)
		mockStore.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).Times(0)

		anomalies, err := newMonitor(mockStore).Check(ctx, today.Add(15*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, anomalies)
	})

	t.Run("anomalies are recorded once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		// origins floor fell 60%, undead volume tripled, migrations tripled
		expectSnapshots(mockStore, ctx, origins, prevDay, snapshot("0.1", 9993, ""), snapshot("0.04", 9993, ""))
		expectSnapshots(mockStore, ctx, undead, prevDay, snapshot("0.04", 5000, "1.0"), snapshot("0.04", 5011, "3.0"))
		mockStore.EXPECT().GetMigrationStats(ctx, prevDay, today).Return([]store.MigrationDayCount{
			{Date: prevDay, Count: 2},
			{Date: today, Count: 6},
		}, nil)
		mockStore.EXPECT().ListMigrationsByDate(ctx, today).Return([]schema.Migration{
			{TokenID: "1"}, {TokenID: "2"}, {TokenID: "3"}, {TokenID: "4"}, {TokenID: "5"}, {TokenID: "6"},
		}, nil)
		mockStore.EXPECT().ListAlerts(ctx, today).Return([]schema.Alert{{
			Type:    schema.AlertTypeFloorDrop,
			Message: "gu-origins floor price dropped 60.0% on 2025-06-02",
		}}, nil)

		var recorded []store.CreateAlertInput
		mockStore.EXPECT().
			CreateAlert(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, input store.CreateAlertInput) error {
				recorded = append(recorded, input)
				return nil
			}).
			Times(2)

		anomalies, err := newMonitor(mockStore).Check(ctx, today)
		require.NoError(t, err)
		require.Len(t, anomalies, 3)
		assert.Equal(t, schema.AlertTypeFloorDrop, anomalies[0].Type)
		assert.Equal(t, domain.ORIGINS_SLUG, anomalies[0].Collection)
		assert.Equal(t, schema.AlertTypeVolumeSpike, anomalies[1].Type)
		assert.Equal(t, domain.UNDEAD_SLUG, anomalies[1].Collection)
		assert.Equal(t, schema.AlertTypeMigrationSpike, anomalies[2].Type)

		require.Len(t, recorded, 2)
		assert.Equal(t, schema.AlertTypeVolumeSpike, recorded[0].Type)
		assert.Equal(t, schema.AlertSeverityWarning, recorded[0].Severity)
		assert.Equal(t, today, recorded[0].Date)
		assert.Equal(t, schema.AlertTypeMigrationSpike, recorded[1].Type)
		assert.Equal(t, "6 migrations detected on 2025-06-02, 3.0x the day before", recorded[1].Message)
		details, ok := recorded[1].Details.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, details["token_ids"])
	})

	t.Run("missing snapshot, gap and invalid values", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		threeDaysBefore := today.AddDate(0, 0, -3)
		expectSnapshots(mockStore, ctx, origins, threeDaysBefore, snapshot("0.05", 9993, ""), snapshot("0", 9993, ""))
		mockStore.EXPECT().GetCollectionBySlug(ctx, undead.Slug).Return(undead, nil)
		mockStore.EXPECT().GetDailySnapshot(ctx, undeadID, today).Return(nil, nil)
		mockStore.EXPECT().GetMigrationStats(ctx, prevDay, today).Return(nil, nil)
		mockStore.EXPECT().ListAlerts(ctx, today).Return(nil, nil)
		mockStore.EXPECT().CreateAlert(ctx, gomock.Any()).Return(nil).Times(3)

		anomalies, err := newMonitor(mockStore).Check(ctx, today)
		require.NoError(t, err)

		types := make([]schema.AlertType, 0, len(anomalies))
		for _, a := range anomalies {
			types = append(types, a.Type)
		}
		assert.Equal(t, []schema.AlertType{
			schema.AlertTypeInvalidSnapshot,
			schema.AlertTypeSnapshotGap,
			schema.AlertTypeMissingSnapshot,
		}, types)
		assert.Equal(t, "gu-origins missed 2 days of snapshots before 2025-06-02", anomalies[1].Message)
	})

	t.Run("unknown collection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		mockStore.EXPECT().GetCollectionBySlug(ctx, origins.Slug).Return(nil, nil)

		_, err := newMonitor(mockStore).Check(ctx, today)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("alert failure is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		expectSnapshots(mockStore, ctx, origins, prevDay, snapshot("0.1", 9993, ""), snapshot("0.01", 9993, ""))
		expectSnapshots(mockStore, ctx, undead, prevDay, snapshot("0.04", 5000, ""), snapshot("0.04", 5000, ""))
		mockStore.EXPECT().GetMigrationStats(ctx, prevDay, today).Return(nil, nil)
		mockStore.EXPECT().ListAlerts(ctx, today).Return(nil, nil)
		mockStore.EXPECT().CreateAlert(ctx, gomock.Any()).Return(assert.AnError)

		_, err := newMonitor(mockStore).Check(ctx, today)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestMonitor_Velocity(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	windowStart := date.AddDate(0, 0, -13)

	t.Run("summarises the migration progress", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rows := make([]schema.DailyAnalytics, 0, 14)
		for i, d := range domain.DateRange(windowStart, date) {
			daily := int64(10)
			if i >= 7 {
				daily = 20
			}
			rows = append(rows, schema.DailyAnalytics{AnalyticsDate: d, DailyNewMigrations: daily})
		}
		rows[13].OriginsSupply = 9993
		rows[13].TotalMigrations = 5037

		mockStore := mocks.NewMockStore(ctrl)
		mockStore.EXPECT().ListDailyAnalytics(ctx, windowStart, date).Return(rows, nil)
		mockStore.EXPECT().GetCollectionBySlug(ctx, origins.Slug).Return(origins, nil)
		mockStore.EXPECT().GetCollectionBySlug(ctx, undead.Slug).Return(undead, nil)
		mockStore.EXPECT().CountMigrations(ctx, originsID, undeadID, date).Return(int64(120), nil)
		mockStore.EXPECT().GetMigrationStats(ctx, date.AddDate(0, 0, -6), date).Return([]store.MigrationDayCount{
			{Date: date.AddDate(0, 0, -1), Count: 5},
			{Date: date, Count: 7},
		}, nil)

		velocity, err := newMonitor(mockStore).Velocity(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, int64(5037), velocity.TotalMigrated)
		assert.Equal(t, int64(9993), velocity.SourceSupply)
		require.True(t, velocity.MigrationRatePercent.Valid)
		assert.InDelta(t, 50.405, velocity.MigrationRatePercent.Decimal.InexactFloat64(), 0.001)
		assert.Equal(t, int64(4956), velocity.RemainingTokens)
		assert.Equal(t, int64(120), velocity.DetectedMigrations)
		assert.Equal(t, int64(12), velocity.DetectedLast7Days)
		assert.True(t, decimal.NewFromInt(20).Equal(velocity.WeeklyAverage))
		require.NotNil(t, velocity.EstimatedDaysToComplete)
		assert.Equal(t, int64(248), *velocity.EstimatedDaysToComplete)
		assert.Equal(t, domain.VelocityTrendAccelerating, velocity.Trend)
	})

	t.Run("requires the analytics row of the date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStore := mocks.NewMockStore(ctrl)
		mockStore.EXPECT().ListDailyAnalytics(ctx, windowStart, date).Return([]schema.DailyAnalytics{
			{AnalyticsDate: date.AddDate(0, 0, -1)},
		}, nil)

		_, err := newMonitor(mockStore).Velocity(ctx, date)
		assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	})
}

func TestTrend(t *testing.T) {
	week := func(v int64) []int64 {
		return []int64{v, v, v, v, v, v, v}
	}

	tests := []struct {
		name     string
		recent   []int64
		previous []int64
		expected domain.VelocityTrend
	}{
		{"short recent window", []int64{1, 2, 3}, week(1), domain.VelocityTrendInsufficientData},
		{"no previous window", week(1), nil, domain.VelocityTrendInsufficientData},
		{"activity after a quiet week", week(3), week(0), domain.VelocityTrendNewActivity},
		{"two quiet weeks", week(0), week(0), domain.VelocityTrendStable},
		{"accelerating", week(12), week(10), domain.VelocityTrendAccelerating},
		{"decelerating", week(8), week(10), domain.VelocityTrendDecelerating},
		{"within ten percent", week(11), week(10), domain.VelocityTrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, monitoring.Trend(tt.recent, tt.previous))
		})
	}
}

func TestEstimateDaysToComplete(t *testing.T) {
	assert.Nil(t, monitoring.EstimateDaysToComplete(4956, decimal.Zero))

	days := monitoring.EstimateDaysToComplete(4956, decimal.NewFromInt(20))
	require.NotNil(t, days)
	assert.Equal(t, int64(248), *days)

	assert.Nil(t, monitoring.EstimateDaysToComplete(4956, decimal.RequireFromString("0.5")))

	done := monitoring.EstimateDaysToComplete(0, decimal.NewFromInt(3))
	require.NotNil(t, done)
	assert.Equal(t, int64(0), *done)
}
