package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// SaveSnapshotInput represents the data required to persist a collection snapshot and its holders
type SaveSnapshotInput struct {
	CollectionID int64
	Date         time.Time
	Stats        domain.CollectionStats
}

// CreateMigrationInput represents a detected migration
type CreateMigrationInput struct {
	TokenID          string
	FromCollectionID int64
	ToCollectionID   int64
	DetectedDate     time.Time
	PreviousHolder   *string
	CurrentHolder    *string
}

// CreateAlertInput represents an alert to record for manual review
type CreateAlertInput struct {
	Date     time.Time
	Type     schema.AlertType
	Severity schema.AlertSeverity
	Message  string
	Details  interface{}
}

// MigrationDayCount is the number of migrations detected on a date
type MigrationDayCount struct {
	Date  time.Time
	Count int64
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// UpsertCollections registers the configured collections by slug and returns them in input order
	UpsertCollections(ctx context.Context, collections []domain.Collection) ([]schema.Collection, error)
	// GetCollectionBySlug retrieves a collection by its slug
	GetCollectionBySlug(ctx context.Context, slug string) (*schema.Collection, error)

	// GetDailySnapshot retrieves the snapshot of a collection for a date
	GetDailySnapshot(ctx context.Context, collectionID int64, date time.Time) (*schema.DailySnapshot, error)
	// GetLatestSnapshotDateBefore returns the most recent snapshot date strictly before date
	GetLatestSnapshotDateBefore(ctx context.Context, collectionID int64, date time.Time) (*time.Time, error)
	// SaveSnapshot stores a snapshot and its holder observations in one transaction.
	// An existing snapshot for the same collection and date is returned untouched with created false.
	SaveSnapshot(ctx context.Context, input SaveSnapshotInput) (*schema.DailySnapshot, bool, error)
	// GetHolders returns the holder observations of a collection for a date
	GetHolders(ctx context.Context, collectionID int64, date time.Time) (domain.HolderSet, error)

	// CreateMigrationEvents inserts migrations that were never recorded before and returns only those
	CreateMigrationEvents(ctx context.Context, inputs []CreateMigrationInput) ([]schema.Migration, error)
	// CountMigrationsByDate counts migrations of a pair detected on a date
	CountMigrationsByDate(ctx context.Context, fromCollectionID, toCollectionID int64, date time.Time) (int64, error)
	// CountMigrations counts migrations of a pair detected on or before a date
	CountMigrations(ctx context.Context, fromCollectionID, toCollectionID int64, asOf time.Time) (int64, error)
	// ListMigrationsByDate lists migrations detected on a date
	ListMigrationsByDate(ctx context.Context, date time.Time) ([]schema.Migration, error)
	// GetMigrationStats returns the migration count per detected date in [from, to]
	GetMigrationStats(ctx context.Context, from, to time.Time) ([]MigrationDayCount, error)

	// GetEthPrice retrieves the stored exchange rate for a date
	GetEthPrice(ctx context.Context, date time.Time) (*schema.DailyEthPrice, error)
	// SaveEthPrice stores the exchange rate for a date unless one exists, and returns the stored row
	SaveEthPrice(ctx context.Context, date time.Time, price decimal.Decimal, source string) (*schema.DailyEthPrice, error)

	// GetDailyAnalytics retrieves the analytics row of a date
	GetDailyAnalytics(ctx context.Context, date time.Time) (*schema.DailyAnalytics, error)
	// UpsertDailyAnalytics inserts or replaces the analytics row of a date
	UpsertDailyAnalytics(ctx context.Context, row *schema.DailyAnalytics) error
	// ListDailyAnalytics lists analytics rows in [from, to] ordered by date
	ListDailyAnalytics(ctx context.Context, from, to time.Time) ([]schema.DailyAnalytics, error)

	// GetRunState retrieves the stage marker of a date
	GetRunState(ctx context.Context, date time.Time) (*schema.RunState, error)
	// SaveRunState inserts or replaces the stage marker of a date
	SaveRunState(ctx context.Context, state *schema.RunState) error

	// CreateAlert records an alert
	CreateAlert(ctx context.Context, input CreateAlertInput) error
	// ListAlerts lists alerts recorded for a date
	ListAlerts(ctx context.Context, date time.Time) ([]schema.Alert, error)

	// WithDateLock runs fn while holding the cross-process lock of a date
	WithDateLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error
}
