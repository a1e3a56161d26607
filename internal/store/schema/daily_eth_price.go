package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyEthPrice represents the daily_eth_prices table - the exchange rate used for a date.
// The first stored rate wins so every retry of a date computes with the same value.
type DailyEthPrice struct {
	PriceDate   time.Time       `gorm:"column:price_date;primaryKey;type:date"`
	EthPriceUSD decimal.Decimal `gorm:"column:eth_price_usd;not null;type:numeric(30,8)"`
	Source      string          `gorm:"column:source;not null;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DailyEthPrice model
func (DailyEthPrice) TableName() string {
	return "daily_eth_prices"
}
