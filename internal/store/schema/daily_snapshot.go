package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot represents the daily_snapshots table - the raw metrics of a collection for a date.
// Rows are append-only: at most one per (collection, date) and never edited.
type DailySnapshot struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection
	CollectionID int64 `gorm:"column:collection_id;not null;uniqueIndex:idx_daily_snapshots_collection_date,priority:1"`
	// SnapshotDate is the calendar date (UTC) the snapshot belongs to
	SnapshotDate time.Time `gorm:"column:snapshot_date;not null;type:date;uniqueIndex:idx_daily_snapshots_collection_date,priority:2"`
	// TotalSupply is the number of tokens in the collection
	TotalSupply int64 `gorm:"column:total_supply;not null"`
	// FloorPriceEth is the floor price in the native currency
	FloorPriceEth decimal.Decimal `gorm:"column:floor_price_eth;not null;type:numeric(30,18)"`
	// NumOwners is the number of distinct owners reported by the marketplace
	NumOwners *int64 `gorm:"column:num_owners"`
	// Volume24hEth is the trading volume of the last 24 hours in the native currency
	Volume24hEth decimal.NullDecimal `gorm:"column:volume_24h_eth;type:numeric(30,18)"`
	// MarketCapEth is the marketplace reported market cap in the native currency
	MarketCapEth decimal.NullDecimal `gorm:"column:market_cap_eth;type:numeric(30,18)"`
	// HolderCount is the number of holder observations written with this snapshot
	HolderCount int `gorm:"column:holder_count;not null;default:0"`
	// CreatedAt is the timestamp when this snapshot was stored
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Collection Collection `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the DailySnapshot model
func (DailySnapshot) TableName() string {
	return "daily_snapshots"
}
