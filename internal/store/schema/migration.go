package schema

import "time"

// Migration represents the migrations table - a token that left the source
// collection and appeared in the destination collection.
// A (token, from, to) triple is recorded at most once, ever.
type Migration struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID is the token identifier shared by both collections
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_migrations_token_pair,priority:1"`
	// FromCollectionID references the source collection
	FromCollectionID int64 `gorm:"column:from_collection_id;not null;uniqueIndex:idx_migrations_token_pair,priority:2"`
	// ToCollectionID references the destination collection
	ToCollectionID int64 `gorm:"column:to_collection_id;not null;uniqueIndex:idx_migrations_token_pair,priority:3"`
	// DetectedDate is the date of the snapshot that revealed the migration
	DetectedDate time.Time `gorm:"column:detected_date;not null;type:date;index"`
	// PreviousHolder is the holder in the source collection before the migration
	PreviousHolder *string `gorm:"column:previous_holder;type:text"`
	// CurrentHolder is the holder in the destination collection at detection
	CurrentHolder *string `gorm:"column:current_holder;type:text"`
	// CreatedAt is the timestamp when this event was stored
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Migration model
func (Migration) TableName() string {
	return "migrations"
}
