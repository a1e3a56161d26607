package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/analytics"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

const (
	// velocityWindow is the number of days averaged by the velocity summary
	velocityWindow = 7
	// maxEstimatedDays caps the days to complete estimate
	maxEstimatedDays = 1000
)

// trendThreshold is the change in percent between the two windows below which the trend is stable
var trendThreshold = decimal.NewFromInt(10)

// Thresholds configure the anomaly checks
type Thresholds struct {
	// MigrationSpikeRatio flags a date whose detected migrations exceed this multiple of the day before
	MigrationSpikeRatio decimal.Decimal
	// VolumeSpikeRatio flags a 24h volume exceeding this multiple of the previous snapshot
	VolumeSpikeRatio decimal.Decimal
	// FloorDropPercent flags a floor price that fell by more than this percentage
	FloorDropPercent decimal.Decimal
}

// DefaultThresholds returns the thresholds used when none are configured
func DefaultThresholds() Thresholds {
	return Thresholds{
		MigrationSpikeRatio: decimal.RequireFromString("1.5"),
		VolumeSpikeRatio:    decimal.NewFromInt(2),
		FloorDropPercent:    decimal.NewFromInt(50),
	}
}

// Anomaly is a condition found by the checks of a date
type Anomaly struct {
	Type       schema.AlertType
	Severity   schema.AlertSeverity
	Collection string
	Message    string
	Details    map[string]interface{}
}

// Monitor checks the persisted data of a date once the date is analyzed
//
//go:generate mockgen -source=monitor.go -destination=../mocks/monitor.go -package=mocks -mock_names=Monitor=MockMonitor
type Monitor interface {
	// Check runs the freshness and anomaly checks of date and records one alert
	// per finding. Alerts already recorded for date are not duplicated.
	Check(ctx context.Context, date time.Time) ([]Anomaly, error)
	// Velocity summarises the migration progress of the pair as of date.
	// It requires the analytics row of date.
	Velocity(ctx context.Context, date time.Time) (*domain.MigrationVelocity, error)
}

type monitor struct {
	store       store.Store
	collections []domain.Collection
	pair        domain.MigrationPair
	thresholds  Thresholds
}

// NewMonitor creates a monitor over the tracked collections and the migration pair
func NewMonitor(st store.Store, collections []domain.Collection, pair domain.MigrationPair, thresholds Thresholds) Monitor {
	defaults := DefaultThresholds()
	if !thresholds.MigrationSpikeRatio.IsPositive() {
		thresholds.MigrationSpikeRatio = defaults.MigrationSpikeRatio
	}
	if !thresholds.VolumeSpikeRatio.IsPositive() {
		thresholds.VolumeSpikeRatio = defaults.VolumeSpikeRatio
	}
	if !thresholds.FloorDropPercent.IsPositive() {
		thresholds.FloorDropPercent = defaults.FloorDropPercent
	}

	return &monitor{
		store:       st,
		collections: collections,
		pair:        pair,
		thresholds:  thresholds,
	}
}

// Check implements Monitor
func (m *monitor) Check(ctx context.Context, date time.Time) ([]Anomaly, error) {
	date = domain.NormalizeDate(date)

	var anomalies []Anomaly
	for _, cfg := range m.collections {
		found, err := m.checkCollection(ctx, cfg, date)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, found...)
	}

	spike, err := m.checkMigrationSpike(ctx, date)
	if err != nil {
		return nil, err
	}
	if spike != nil {
		anomalies = append(anomalies, *spike)
	}

	if err := m.record(ctx, date, anomalies); err != nil {
		return nil, err
	}

	return anomalies, nil
}

// checkCollection compares the snapshot of date with the previous snapshot of the collection
func (m *monitor) checkCollection(ctx context.Context, cfg domain.Collection, date time.Time) ([]Anomaly, error) {
	collection, err := m.store.GetCollectionBySlug(ctx, cfg.Slug)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, cfg.Slug)
	}

	current, err := m.store.GetDailySnapshot(ctx, collection.ID, date)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return []Anomaly{{
			Type:       schema.AlertTypeMissingSnapshot,
			Severity:   schema.AlertSeverityWarning,
			Collection: cfg.Slug,
			Message:    fmt.Sprintf("%s has no snapshot for %s", cfg.Slug, domain.FormatDate(date)),
		}}, nil
	}

	anomalies := invalidValues(cfg.Slug, date, current)

	prevDate, err := m.store.GetLatestSnapshotDateBefore(ctx, collection.ID, date)
	if err != nil {
		return nil, err
	}
	if prevDate == nil {
		return anomalies, nil
	}
	prev := domain.NormalizeDate(*prevDate)

	if missed := len(domain.DateRange(prev, date)) - 2; missed > 0 {
		anomalies = append(anomalies, Anomaly{
			Type:       schema.AlertTypeSnapshotGap,
			Severity:   schema.AlertSeverityWarning,
			Collection: cfg.Slug,
			Message:    fmt.Sprintf("%s missed %d days of snapshots before %s", cfg.Slug, missed, domain.FormatDate(date)),
			Details: map[string]interface{}{
				"previous_snapshot": domain.FormatDate(prev),
				"missed_days":       missed,
			},
		})
	}

	previous, err := m.store.GetDailySnapshot(ctx, collection.ID, prev)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return anomalies, nil
	}

	return append(anomalies, m.compareSnapshots(cfg.Slug, date, previous, current)...), nil
}

// invalidValues flags a snapshot whose floor price or supply is not positive
func invalidValues(slug string, date time.Time, snapshot *schema.DailySnapshot) []Anomaly {
	var anomalies []Anomaly
	if !snapshot.FloorPriceEth.IsPositive() {
		anomalies = append(anomalies, Anomaly{
			Type:       schema.AlertTypeInvalidSnapshot,
			Severity:   schema.AlertSeverityWarning,
			Collection: slug,
			Message:    fmt.Sprintf("%s floor price is missing on %s", slug, domain.FormatDate(date)),
			Details:    map[string]interface{}{"field": "floor_price_eth"},
		})
	}
	if snapshot.TotalSupply <= 0 {
		anomalies = append(anomalies, Anomaly{
			Type:       schema.AlertTypeInvalidSnapshot,
			Severity:   schema.AlertSeverityWarning,
			Collection: slug,
			Message:    fmt.Sprintf("%s supply is missing on %s", slug, domain.FormatDate(date)),
			Details:    map[string]interface{}{"field": "total_supply"},
		})
	}
	return anomalies
}

// compareSnapshots flags volume spikes and floor price drops between two snapshots
func (m *monitor) compareSnapshots(slug string, date time.Time, previous, current *schema.DailySnapshot) []Anomaly {
	var anomalies []Anomaly

	if previous.Volume24hEth.Valid && current.Volume24hEth.Valid && previous.Volume24hEth.Decimal.IsPositive() {
		ratio := current.Volume24hEth.Decimal.DivRound(previous.Volume24hEth.Decimal, 2)
		if ratio.GreaterThan(m.thresholds.VolumeSpikeRatio) {
			anomalies = append(anomalies, Anomaly{
				Type:       schema.AlertTypeVolumeSpike,
				Severity:   schema.AlertSeverityWarning,
				Collection: slug,
				Message:    fmt.Sprintf("%s 24h volume rose %sx on %s", slug, ratio.StringFixed(1), domain.FormatDate(date)),
				Details: map[string]interface{}{
					"previous_volume": previous.Volume24hEth.Decimal.String(),
					"current_volume":  current.Volume24hEth.Decimal.String(),
					"ratio":           ratio.String(),
				},
			})
		}
	}

	if previous.FloorPriceEth.IsPositive() && current.FloorPriceEth.IsPositive() {
		change := analytics.PercentChange(current.FloorPriceEth, previous.FloorPriceEth)
		if change.Valid && change.Decimal.LessThan(m.thresholds.FloorDropPercent.Neg()) {
			anomalies = append(anomalies, Anomaly{
				Type:       schema.AlertTypeFloorDrop,
				Severity:   schema.AlertSeverityWarning,
				Collection: slug,
				Message:    fmt.Sprintf("%s floor price dropped %s%% on %s", slug, change.Decimal.Neg().StringFixed(1), domain.FormatDate(date)),
				Details: map[string]interface{}{
					"previous_floor": previous.FloorPriceEth.String(),
					"current_floor":  current.FloorPriceEth.String(),
					"change_percent": change.Decimal.String(),
				},
			})
		}
	}

	return anomalies
}

// checkMigrationSpike compares the migrations detected on date with the day before
func (m *monitor) checkMigrationSpike(ctx context.Context, date time.Time) (*Anomaly, error) {
	yesterday := domain.PreviousDate(date)
	stats, err := m.store.GetMigrationStats(ctx, yesterday, date)
	if err != nil {
		return nil, err
	}

	var today, before int64
	for _, day := range stats {
		switch {
		case day.Date.Equal(date):
			today = day.Count
		case day.Date.Equal(yesterday):
			before = day.Count
		}
	}
	if before == 0 || today == 0 {
		return nil, nil
	}

	ratio := decimal.NewFromInt(today).DivRound(decimal.NewFromInt(before), 2)
	if !ratio.GreaterThan(m.thresholds.MigrationSpikeRatio) {
		return nil, nil
	}

	migrations, err := m.store.ListMigrationsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	tokenIDs := make([]string, 0, len(migrations))
	for _, migration := range migrations {
		tokenIDs = append(tokenIDs, migration.TokenID)
	}

	return &Anomaly{
		Type:     schema.AlertTypeMigrationSpike,
		Severity: schema.AlertSeverityWarning,
		Message:  fmt.Sprintf("%d migrations detected on %s, %sx the day before", today, domain.FormatDate(date), ratio.StringFixed(1)),
		Details: map[string]interface{}{
			"previous_count": before,
			"current_count":  today,
			"ratio":          ratio.String(),
			"token_ids":      tokenIDs,
		},
	}, nil
}

// record stores an alert for every anomaly not already recorded for date
func (m *monitor) record(ctx context.Context, date time.Time, anomalies []Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	existing, err := m.store.ListAlerts(ctx, date)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, alert := range existing {
		seen[string(alert.Type)+"|"+alert.Message] = true
	}

	for _, anomaly := range anomalies {
		key := string(anomaly.Type) + "|" + anomaly.Message
		if seen[key] {
			continue
		}
		seen[key] = true

		logger.WarnCtx(ctx, "Anomaly detected",
			zap.String("date", domain.FormatDate(date)),
			zap.String("type", string(anomaly.Type)),
			zap.String("collection", anomaly.Collection),
			zap.String("message", anomaly.Message),
		)

		err := m.store.CreateAlert(ctx, store.CreateAlertInput{
			Date:     date,
			Type:     anomaly.Type,
			Severity: anomaly.Severity,
			Message:  anomaly.Message,
			Details:  anomaly.Details,
		})
		if err != nil {
			return fmt.Errorf("failed to record %s alert: %w", anomaly.Type, err)
		}
	}

	return nil
}

// Velocity implements Monitor
func (m *monitor) Velocity(ctx context.Context, date time.Time) (*domain.MigrationVelocity, error) {
	date = domain.NormalizeDate(date)
	recentFrom := date.AddDate(0, 0, -(velocityWindow - 1))
	previousFrom := recentFrom.AddDate(0, 0, -velocityWindow)

	rows, err := m.store.ListDailyAnalytics(ctx, previousFrom, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || !domain.NormalizeDate(rows[len(rows)-1].AnalyticsDate).Equal(date) {
		return nil, fmt.Errorf("%w: no analytics for %s", domain.ErrDataUnavailable, domain.FormatDate(date))
	}
	current := rows[len(rows)-1]

	from, err := m.store.GetCollectionBySlug(ctx, m.pair.From)
	if err != nil {
		return nil, err
	}
	to, err := m.store.GetCollectionBySlug(ctx, m.pair.To)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, m.pair)
	}

	detected, err := m.store.CountMigrations(ctx, from.ID, to.ID, date)
	if err != nil {
		return nil, err
	}
	stats, err := m.store.GetMigrationStats(ctx, recentFrom, date)
	if err != nil {
		return nil, err
	}
	var detectedRecent int64
	for _, day := range stats {
		detectedRecent += day.Count
	}

	var recent, previous []int64
	for _, row := range rows {
		if domain.NormalizeDate(row.AnalyticsDate).Before(recentFrom) {
			previous = append(previous, row.DailyNewMigrations)
		} else {
			recent = append(recent, row.DailyNewMigrations)
		}
	}

	velocity := &domain.MigrationVelocity{
		TotalMigrated:        current.TotalMigrations,
		SourceSupply:         current.OriginsSupply,
		MigrationRatePercent: analytics.Percent(decimal.NewFromInt(current.TotalMigrations), decimal.NewFromInt(current.OriginsSupply)),
		RemainingTokens:      max(current.OriginsSupply-current.TotalMigrations, 0),
		DetectedMigrations:   detected,
		DetectedLast7Days:    detectedRecent,
		WeeklyAverage:        decimal.NewFromInt(sum(recent)).DivRound(decimal.NewFromInt(velocityWindow), 2),
		Trend:                Trend(recent, previous),
	}
	velocity.EstimatedDaysToComplete = EstimateDaysToComplete(velocity.RemainingTokens, velocity.WeeklyAverage)

	logger.InfoCtx(ctx, "Computed migration velocity",
		zap.String("date", domain.FormatDate(date)),
		zap.Int64("remaining_tokens", velocity.RemainingTokens),
		zap.String("weekly_average", velocity.WeeklyAverage.String()),
		zap.String("trend", string(velocity.Trend)),
	)

	return velocity, nil
}

// EstimateDaysToComplete returns remaining / average rounded up,
// nil when there is no progress or the estimate exceeds maxEstimatedDays
func EstimateDaysToComplete(remaining int64, average decimal.Decimal) *int64 {
	if !average.IsPositive() {
		return nil
	}
	days := decimal.NewFromInt(remaining).Div(average).Ceil().IntPart()
	if days > maxEstimatedDays {
		return nil
	}
	return &days
}

// Trend compares the daily new migrations of the recent window with the window before it
func Trend(recent, previous []int64) domain.VelocityTrend {
	if len(recent) < velocityWindow || len(previous) == 0 {
		return domain.VelocityTrendInsufficientData
	}

	recentAvg := decimal.NewFromInt(sum(recent)).Div(decimal.NewFromInt(int64(len(recent))))
	previousAvg := decimal.NewFromInt(sum(previous)).Div(decimal.NewFromInt(int64(len(previous))))
	if previousAvg.IsZero() {
		if recentAvg.IsZero() {
			return domain.VelocityTrendStable
		}
		return domain.VelocityTrendNewActivity
	}

	change := analytics.PercentChange(recentAvg, previousAvg).Decimal
	switch {
	case change.GreaterThan(trendThreshold):
		return domain.VelocityTrendAccelerating
	case change.LessThan(trendThreshold.Neg()):
		return domain.VelocityTrendDecelerating
	default:
		return domain.VelocityTrendStable
	}
}

func sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}
