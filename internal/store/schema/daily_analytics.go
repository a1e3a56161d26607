package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyAnalytics represents the daily_analytics table - the derived metrics of a date.
// Null columns mean the value is undefined for that date (no prior row or a zero divisor).
type DailyAnalytics struct {
	AnalyticsDate         time.Time           `gorm:"column:analytics_date;primaryKey;type:date"`
	EthPriceUSD           decimal.Decimal     `gorm:"column:eth_price_usd;not null;type:numeric(30,8)"`
	OriginsFloorEth       decimal.Decimal     `gorm:"column:origins_floor_eth;not null;type:numeric(30,18)"`
	OriginsSupply         int64               `gorm:"column:origins_supply;not null"`
	OriginsMarketCapUSD   decimal.Decimal     `gorm:"column:origins_market_cap_usd;not null;type:numeric(38,8)"`
	OriginsFloorChange24h decimal.NullDecimal `gorm:"column:origins_floor_change_24h;type:numeric(30,8)"`
	UndeadFloorEth        decimal.Decimal     `gorm:"column:undead_floor_eth;not null;type:numeric(30,18)"`
	UndeadSupply          int64               `gorm:"column:undead_supply;not null"`
	UndeadMarketCapUSD    decimal.Decimal     `gorm:"column:undead_market_cap_usd;not null;type:numeric(38,8)"`
	UndeadFloorChange24h  decimal.NullDecimal `gorm:"column:undead_floor_change_24h;type:numeric(30,8)"`
	UndeadSupplyChange24h *int64              `gorm:"column:undead_supply_change_24h"`
	// TotalMigrations is the destination supply plus the burned constant
	TotalMigrations      int64               `gorm:"column:total_migrations;not null"`
	MigrationPercent     decimal.NullDecimal `gorm:"column:migration_percent;type:numeric(30,8)"`
	PriceRatio           decimal.NullDecimal `gorm:"column:price_ratio;type:numeric(30,8)"`
	CombinedMarketCapUSD decimal.Decimal     `gorm:"column:combined_market_cap_usd;not null;type:numeric(38,8)"`
	// DailyNewMigrations is the destination supply change clamped at zero
	DailyNewMigrations int64 `gorm:"column:daily_new_migrations;not null;default:0"`
	// MigrationEvents is the number of migration events detected on this date, informational only
	MigrationEvents int64     `gorm:"column:migration_events;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DailyAnalytics model
func (DailyAnalytics) TableName() string {
	return "daily_analytics"
}
