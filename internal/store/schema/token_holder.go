package schema

import "time"

// TokenHolder represents the token_holders table - the holder ledger used for migration inference
type TokenHolder struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection
	CollectionID int64 `gorm:"column:collection_id;not null;uniqueIndex:idx_token_holders_collection_token_date,priority:1"`
	// TokenID is the token identifier within the collection contract
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_token_holders_collection_token_date,priority:2"`
	// HolderAddress is the lower-cased holder address
	HolderAddress string `gorm:"column:holder_address;not null;type:text"`
	// SnapshotDate is the date the holder was observed
	SnapshotDate time.Time `gorm:"column:snapshot_date;not null;type:date;uniqueIndex:idx_token_holders_collection_token_date,priority:3"`
	// CreatedAt is the timestamp when this observation was first stored
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this observation was last overwritten
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenHolder model
func (TokenHolder) TableName() string {
	return "token_holders"
}
