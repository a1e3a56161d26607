package schema

import (
	"time"

	"gorm.io/datatypes"
)

// AlertType is the kind of condition an alert reports
type AlertType string

const (
	// AlertTypePotentialMigration reports tokens new to the destination that were never seen in the source
	AlertTypePotentialMigration AlertType = "potential_migration"
	// AlertTypeRunFailed reports a daily run that ended in FAILED
	AlertTypeRunFailed AlertType = "run_failed"
	// AlertTypeMissingSnapshot reports a collection without a snapshot for the checked date
	AlertTypeMissingSnapshot AlertType = "missing_snapshot"
	// AlertTypeSnapshotGap reports missed collection days before the checked date
	AlertTypeSnapshotGap AlertType = "snapshot_gap"
	// AlertTypeInvalidSnapshot reports a snapshot with a zero floor price or supply
	AlertTypeInvalidSnapshot AlertType = "invalid_snapshot"
	AlertTypeMigrationSpike  AlertType = "migration_spike"
	AlertTypeVolumeSpike     AlertType = "volume_spike"
	AlertTypeFloorDrop       AlertType = "floor_drop"
)

// AlertSeverity is the importance of an alert
type AlertSeverity string

const (
	AlertSeverityInfo    AlertSeverity = "info"
	AlertSeverityWarning AlertSeverity = "warning"
	AlertSeverityError   AlertSeverity = "error"
)

// Alert represents the alerts table - conditions recorded for manual review
type Alert struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	AlertDate time.Time      `gorm:"column:alert_date;not null;type:date;index"`
	Type      AlertType      `gorm:"column:type;not null;type:text"`
	Severity  AlertSeverity  `gorm:"column:severity;not null;type:text"`
	Message   string         `gorm:"column:message;not null;type:text"`
	Details   datatypes.JSON `gorm:"column:details;type:jsonb"`
	Resolved  bool           `gorm:"column:resolved;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Alert model
func (Alert) TableName() string {
	return "alerts"
}
