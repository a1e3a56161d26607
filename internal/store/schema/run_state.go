package schema

import "time"

// RunState represents the run_states table - the resumable stage marker of a daily run
type RunState struct {
	// RunDate is the date the run processes
	RunDate time.Time `gorm:"column:run_date;primaryKey;type:date"`
	// RunID identifies the latest attempt
	RunID string `gorm:"column:run_id;not null;type:text"`
	// Stage is the furthest stage reached
	Stage string `gorm:"column:stage;not null;type:text"`
	// Status is RUNNING, SUCCEEDED or FAILED
	Status string `gorm:"column:status;not null;type:text"`
	// Error is the failure message of the latest attempt
	Error *string `gorm:"column:error;type:text"`
	// Attempts counts the runs started for this date
	Attempts int `gorm:"column:attempts;not null;default:0"`
	// StartedAt is when the latest attempt started
	StartedAt time.Time `gorm:"column:started_at;not null;type:timestamptz"`
	// FinishedAt is when the latest attempt finished
	FinishedAt *time.Time `gorm:"column:finished_at;type:timestamptz"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the RunState model
func (RunState) TableName() string {
	return "run_states"
}
