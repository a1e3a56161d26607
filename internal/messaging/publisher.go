package messaging

import (
	"context"
	"time"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
)

// RunCompletedEvent is published after a daily run reached ANALYZED
type RunCompletedEvent struct {
	RunID            string  `json:"run_id"`
	Date             string  `json:"date"`
	NewMigrations    int     `json:"new_migrations"`
	TotalMigrations  int64   `json:"total_migrations"`
	UndeadSupply     int64   `json:"undead_supply"`
	MigrationPercent *string `json:"migration_percent,omitempty"`
	// Velocity is set when the migration velocity of the date could be computed
	Velocity    *domain.MigrationVelocity `json:"velocity,omitempty"`
	CompletedAt time.Time                 `json:"completed_at"`
}

// Publisher defines the interface for publishing tracker notifications to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishRunCompleted announces that the analytics of a date are available
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
	// Close closes the connection
	Close()
}
