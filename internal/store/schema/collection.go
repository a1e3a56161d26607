package schema

import "time"

// Collection represents the collections table - the tracked NFT collections
type Collection struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Slug is the marketplace slug and the natural key (e.g. "gu-origins")
	Slug string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	// DisplayName is the human readable name
	DisplayName string `gorm:"column:display_name;not null;type:text"`
	// ContractAddress is the lower-cased token contract address
	ContractAddress string `gorm:"column:contract_address;not null;type:text"`
	// Chain is the CAIP-2 chain identifier
	Chain string `gorm:"column:chain;not null;type:text"`
	// FixedSupply is set for collections whose supply never changes
	FixedSupply *int64 `gorm:"column:fixed_supply"`
	// CreatedAt is the timestamp when this collection was first registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this collection was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
