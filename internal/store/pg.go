package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// pgUniqueViolation is the PostgreSQL error code of a unique constraint violation
const pgUniqueViolation = "23505"

// dateLockNamespace keeps date lock keys apart from other advisory locks on the database
const dateLockNamespace int64 = 0x4755 << 32

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 5
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 1 hour
//   - ConnMaxIdleTime: 10 minutes
//
// MaxOpenConns is at least 2 because WithDateLock pins one connection for the lock
// while the locked work runs on the rest of the pool.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 5
	}
	if maxOpenConns < 2 {
		maxOpenConns = 2
	}
	if maxIdleConns == 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = time.Hour
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays under
// PostgreSQL's limit of 65535 parameters per statement.
// A fixed headroom is reserved for ON CONFLICT parameters and GORM bookkeeping.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// mapDBError translates unique violations into domain.ErrConsistencyViolation
func mapDBError(err error, action string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: failed to %s: %s", domain.ErrConsistencyViolation, action, pgErr.ConstraintName)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: failed to %s: %w", domain.ErrConsistencyViolation, action, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// UpsertCollections registers the configured collections by slug
func (s *pgStore) UpsertCollections(ctx context.Context, collections []domain.Collection) ([]schema.Collection, error) {
	if len(collections) == 0 {
		return nil, nil
	}

	rows := make([]schema.Collection, 0, len(collections))
	slugs := make([]string, 0, len(collections))
	for _, c := range collections {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		chain := c.Chain
		if chain == "" {
			chain = domain.ChainEthereumMainnet
		}
		displayName := c.DisplayName
		if displayName == "" {
			displayName = c.Slug
		}
		rows = append(rows, schema.Collection{
			Slug:            c.Slug,
			DisplayName:     displayName,
			ContractAddress: strings.ToLower(c.ContractAddress),
			Chain:           string(chain),
			FixedSupply:     c.FixedSupply,
		})
		slugs = append(slugs, c.Slug)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "contract_address", "chain", "fixed_supply", "updated_at"}),
		}).Create(&rows).Error; err != nil {
			return mapDBError(err, "upsert collections")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var stored []schema.Collection
	if err := s.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	bySlug := make(map[string]schema.Collection, len(stored))
	for _, c := range stored {
		bySlug[c.Slug] = c
	}
	result := make([]schema.Collection, 0, len(slugs))
	for _, slug := range slugs {
		c, ok := bySlug[slug]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, slug)
		}
		result = append(result, c)
	}

	return result, nil
}

// GetCollectionBySlug retrieves a collection by its slug
func (s *pgStore) GetCollectionBySlug(ctx context.Context, slug string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// GetDailySnapshot retrieves the snapshot of a collection for a date
func (s *pgStore) GetDailySnapshot(ctx context.Context, collectionID int64, date time.Time) (*schema.DailySnapshot, error) {
	var snapshot schema.DailySnapshot
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND snapshot_date = ?", collectionID, domain.NormalizeDate(date)).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetLatestSnapshotDateBefore returns the most recent snapshot date strictly before date
func (s *pgStore) GetLatestSnapshotDateBefore(ctx context.Context, collectionID int64, date time.Time) (*time.Time, error) {
	var snapshot schema.DailySnapshot
	err := s.db.WithContext(ctx).
		Select("snapshot_date").
		Where("collection_id = ? AND snapshot_date < ?", collectionID, domain.NormalizeDate(date)).
		Order("snapshot_date DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot date: %w", err)
	}
	d := domain.NormalizeDate(snapshot.SnapshotDate)
	return &d, nil
}

// validateSnapshot checks the snapshot input at the store boundary and returns
// the holder rows to insert, sorted by token id
func validateSnapshot(input SaveSnapshotInput, date time.Time) ([]schema.TokenHolder, error) {
	if input.CollectionID <= 0 {
		return nil, fmt.Errorf("invalid snapshot: collection id is required")
	}
	if input.Stats.TotalSupply < 0 {
		return nil, fmt.Errorf("invalid snapshot: negative total supply %d", input.Stats.TotalSupply)
	}
	if input.Stats.FloorPriceNative.IsNegative() {
		return nil, fmt.Errorf("invalid snapshot: negative floor price %s", input.Stats.FloorPriceNative)
	}

	holders := make([]schema.TokenHolder, 0, len(input.Stats.Holders))
	for tokenID, address := range input.Stats.Holders {
		if !domain.ValidTokenID(tokenID) {
			return nil, fmt.Errorf("invalid snapshot: token id %q", tokenID)
		}
		normalized := domain.NormalizeAddress(address)
		if normalized == "" {
			return nil, fmt.Errorf("invalid snapshot: holder address %q of token %s", address, tokenID)
		}
		holders = append(holders, schema.TokenHolder{
			CollectionID:  input.CollectionID,
			TokenID:       tokenID,
			HolderAddress: normalized,
			SnapshotDate:  date,
		})
	}
	sort.Slice(holders, func(i, j int) bool {
		return holders[i].TokenID < holders[j].TokenID
	})

	return holders, nil
}

// SaveSnapshot stores a snapshot and its holder observations in one transaction
func (s *pgStore) SaveSnapshot(ctx context.Context, input SaveSnapshotInput) (*schema.DailySnapshot, bool, error) {
	date := domain.NormalizeDate(input.Date)
	holders, err := validateSnapshot(input, date)
	if err != nil {
		return nil, false, err
	}

	snapshot := schema.DailySnapshot{
		CollectionID:  input.CollectionID,
		SnapshotDate:  date,
		TotalSupply:   input.Stats.TotalSupply,
		FloorPriceEth: input.Stats.FloorPriceNative,
		NumOwners:     input.Stats.NumOwners,
		HolderCount:   len(holders),
	}
	if input.Stats.Volume24hNative != nil {
		snapshot.Volume24hEth = decimal.NewNullDecimal(*input.Stats.Volume24hNative)
	}
	if input.Stats.MarketCapNative != nil {
		snapshot.MarketCapEth = decimal.NewNullDecimal(*input.Stats.MarketCapNative)
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Snapshots are append-only, an existing row for the date wins
		result := tx.Omit(clause.Associations).Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "collection_id"}, {Name: "snapshot_date"}},
				DoNothing: true,
			},
			clause.Returning{},
		).Create(&snapshot)
		if result.Error != nil {
			return mapDBError(result.Error, "create daily snapshot")
		}

		if result.RowsAffected == 0 {
			return tx.Where("collection_id = ? AND snapshot_date = ?", input.CollectionID, date).
				First(&snapshot).Error
		}
		created = true

		if len(holders) == 0 {
			return nil
		}

		// Re-observation of a token on the same date overwrites the holder
		batchSize := calculateSafeBatchSize(len(holders), 6)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_id"}, {Name: "token_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"holder_address", "updated_at"}),
		}).CreateInBatches(&holders, batchSize).Error; err != nil {
			return mapDBError(err, "create token holders")
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		logger.DebugCtx(ctx, "Snapshot already stored, keeping the existing row",
			zap.Int64("collection_id", input.CollectionID),
			zap.String("date", domain.FormatDate(date)),
		)
	}

	return &snapshot, created, nil
}

// GetHolders returns the holder observations of a collection for a date
func (s *pgStore) GetHolders(ctx context.Context, collectionID int64, date time.Time) (domain.HolderSet, error) {
	var holders []schema.TokenHolder
	err := s.db.WithContext(ctx).
		Select("token_id", "holder_address").
		Where("collection_id = ? AND snapshot_date = ?", collectionID, domain.NormalizeDate(date)).
		Find(&holders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get token holders: %w", err)
	}

	result := make(domain.HolderSet, len(holders))
	for _, h := range holders {
		result[h.TokenID] = h.HolderAddress
	}
	return result, nil
}

// CreateMigrationEvents inserts migrations that were never recorded before.
// Rows are inserted one by one so that a conflict never shifts returned ids onto the wrong rows.
func (s *pgStore) CreateMigrationEvents(ctx context.Context, inputs []CreateMigrationInput) ([]schema.Migration, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	var inserted []schema.Migration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted = inserted[:0]
		for _, input := range inputs {
			if !domain.ValidTokenID(input.TokenID) {
				return fmt.Errorf("invalid migration: token id %q", input.TokenID)
			}
			if input.FromCollectionID == input.ToCollectionID {
				return fmt.Errorf("invalid migration: token %s has the same source and destination", input.TokenID)
			}

			migration := schema.Migration{
				TokenID:          input.TokenID,
				FromCollectionID: input.FromCollectionID,
				ToCollectionID:   input.ToCollectionID,
				DetectedDate:     domain.NormalizeDate(input.DetectedDate),
				PreviousHolder:   input.PreviousHolder,
				CurrentHolder:    input.CurrentHolder,
			}

			result := tx.Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "token_id"}, {Name: "from_collection_id"}, {Name: "to_collection_id"}},
					DoNothing: true,
				},
				clause.Returning{},
			).Create(&migration)
			if result.Error != nil {
				return mapDBError(result.Error, "create migration")
			}
			if result.RowsAffected == 0 {
				continue
			}
			inserted = append(inserted, migration)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inserted, nil
}

// CountMigrationsByDate counts migrations of a pair detected on a date
func (s *pgStore) CountMigrationsByDate(ctx context.Context, fromCollectionID, toCollectionID int64, date time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Migration{}).
		Where("from_collection_id = ? AND to_collection_id = ? AND detected_date = ?",
			fromCollectionID, toCollectionID, domain.NormalizeDate(date)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count migrations: %w", err)
	}
	return count, nil
}

// CountMigrations counts migrations of a pair detected on or before a date
func (s *pgStore) CountMigrations(ctx context.Context, fromCollectionID, toCollectionID int64, asOf time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Migration{}).
		Where("from_collection_id = ? AND to_collection_id = ? AND detected_date <= ?",
			fromCollectionID, toCollectionID, domain.NormalizeDate(asOf)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count migrations: %w", err)
	}
	return count, nil
}

// ListMigrationsByDate lists migrations detected on a date
func (s *pgStore) ListMigrationsByDate(ctx context.Context, date time.Time) ([]schema.Migration, error) {
	var migrations []schema.Migration
	err := s.db.WithContext(ctx).
		Where("detected_date = ?", domain.NormalizeDate(date)).
		Order("id ASC").
		Find(&migrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	return migrations, nil
}

// GetMigrationStats returns the migration count per detected date in [from, to]
func (s *pgStore) GetMigrationStats(ctx context.Context, from, to time.Time) ([]MigrationDayCount, error) {
	var rows []struct {
		DetectedDate time.Time
		Count        int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT detected_date, COUNT(*) AS count
		FROM migrations
		WHERE detected_date BETWEEN ? AND ?
		GROUP BY detected_date
		ORDER BY detected_date ASC
	`, domain.NormalizeDate(from), domain.NormalizeDate(to)).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get migration stats: %w", err)
	}

	stats := make([]MigrationDayCount, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, MigrationDayCount{
			Date:  domain.NormalizeDate(r.DetectedDate),
			Count: r.Count,
		})
	}
	return stats, nil
}

// GetEthPrice retrieves the stored exchange rate for a date
func (s *pgStore) GetEthPrice(ctx context.Context, date time.Time) (*schema.DailyEthPrice, error) {
	var price schema.DailyEthPrice
	err := s.db.WithContext(ctx).Where("price_date = ?", domain.NormalizeDate(date)).First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get eth price: %w", err)
	}
	return &price, nil
}

// SaveEthPrice stores the exchange rate for a date unless one exists
func (s *pgStore) SaveEthPrice(ctx context.Context, date time.Time, price decimal.Decimal, source string) (*schema.DailyEthPrice, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("invalid eth price %s", price)
	}

	row := schema.DailyEthPrice{
		PriceDate:   domain.NormalizeDate(date),
		EthPriceUSD: price,
		Source:      source,
	}

	var stored schema.DailyEthPrice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "price_date"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return mapDBError(err, "save eth price")
		}
		return tx.Where("price_date = ?", row.PriceDate).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// GetDailyAnalytics retrieves the analytics row of a date
func (s *pgStore) GetDailyAnalytics(ctx context.Context, date time.Time) (*schema.DailyAnalytics, error) {
	var row schema.DailyAnalytics
	err := s.db.WithContext(ctx).Where("analytics_date = ?", domain.NormalizeDate(date)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily analytics: %w", err)
	}
	return &row, nil
}

// UpsertDailyAnalytics inserts or replaces the analytics row of a date
func (s *pgStore) UpsertDailyAnalytics(ctx context.Context, row *schema.DailyAnalytics) error {
	if row == nil {
		return fmt.Errorf("daily analytics row is required")
	}
	row.AnalyticsDate = domain.NormalizeDate(row.AnalyticsDate)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "analytics_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"eth_price_usd",
			"origins_floor_eth",
			"origins_supply",
			"origins_market_cap_usd",
			"origins_floor_change_24h",
			"undead_floor_eth",
			"undead_supply",
			"undead_market_cap_usd",
			"undead_floor_change_24h",
			"undead_supply_change_24h",
			"total_migrations",
			"migration_percent",
			"price_ratio",
			"combined_market_cap_usd",
			"daily_new_migrations",
			"migration_events",
			"updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return mapDBError(err, "upsert daily analytics")
	}
	return nil
}

// ListDailyAnalytics lists analytics rows in [from, to] ordered by date
func (s *pgStore) ListDailyAnalytics(ctx context.Context, from, to time.Time) ([]schema.DailyAnalytics, error) {
	var rows []schema.DailyAnalytics
	err := s.db.WithContext(ctx).
		Where("analytics_date BETWEEN ? AND ?", domain.NormalizeDate(from), domain.NormalizeDate(to)).
		Order("analytics_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily analytics: %w", err)
	}
	return rows, nil
}

// GetRunState retrieves the stage marker of a date
func (s *pgStore) GetRunState(ctx context.Context, date time.Time) (*schema.RunState, error) {
	var state schema.RunState
	err := s.db.WithContext(ctx).Where("run_date = ?", domain.NormalizeDate(date)).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run state: %w", err)
	}
	return &state, nil
}

// SaveRunState inserts or replaces the stage marker of a date
func (s *pgStore) SaveRunState(ctx context.Context, state *schema.RunState) error {
	if state == nil {
		return fmt.Errorf("run state is required")
	}
	state.RunDate = domain.NormalizeDate(state.RunDate)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"run_id", "stage", "status", "error", "attempts", "started_at", "finished_at", "updated_at"}),
	}).Create(state).Error
	if err != nil {
		return mapDBError(err, "save run state")
	}
	return nil
}

// CreateAlert records an alert
func (s *pgStore) CreateAlert(ctx context.Context, input CreateAlertInput) error {
	alert := schema.Alert{
		AlertDate: domain.NormalizeDate(input.Date),
		Type:      input.Type,
		Severity:  input.Severity,
		Message:   input.Message,
		Details:   datatypes.JSON("{}"),
	}
	if input.Details != nil {
		details, err := json.Marshal(input.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal alert details: %w", err)
		}
		alert.Details = datatypes.JSON(details)
	}

	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// ListAlerts lists alerts recorded for a date
func (s *pgStore) ListAlerts(ctx context.Context, date time.Time) ([]schema.Alert, error) {
	var alerts []schema.Alert
	err := s.db.WithContext(ctx).
		Where("alert_date = ?", domain.NormalizeDate(date)).
		Order("id ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// dateLockKey derives the advisory lock key of a date
func dateLockKey(date time.Time) int64 {
	return dateLockNamespace + domain.NormalizeDate(date).Unix()/86400
}

// WithDateLock runs fn while holding a session advisory lock keyed by the date.
// The lock lives on a dedicated connection; fn uses the rest of the pool.
// Callers running N locked functions concurrently need a pool of more than N
// connections, the worker config enforces this against its activity concurrency.
func (s *pgStore) WithDateLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error {
	key := dateLockKey(date)

	return s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", key).Error; err != nil {
			return fmt.Errorf("failed to acquire date lock: %w", err)
		}
		defer func() {
			// The lock must be released even when ctx is already canceled
			if err := conn.WithContext(context.Background()).Exec("SELECT pg_advisory_unlock(?)", key).Error; err != nil {
				logger.Warn("Failed to release date lock", zap.Error(err), zap.String("date", domain.FormatDate(date)))
			}
		}()

		return fn(ctx)
	})
}
