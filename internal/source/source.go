package source

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
)

// SnapshotSource reports the state of a collection for a date.
// Errors wrap domain.ErrRateLimited, domain.ErrUnavailable or domain.ErrNotFound,
// and domain.ErrDataUnavailable when the state as of the date cannot be reported.
//
//go:generate mockgen -source=source.go -destination=../mocks/source.go -package=mocks -mock_names=SnapshotSource=MockSnapshotSource,PriceSource=MockPriceSource
type SnapshotSource interface {
	FetchStats(ctx context.Context, collection domain.Collection, asOf time.Time) (*domain.CollectionStats, error)
}

// PriceSource reports the ETH/USD exchange rate for a date
type PriceSource interface {
	FetchRate(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}
