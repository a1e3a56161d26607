package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// precision is the number of decimal places kept for derived values, matching the numeric columns
const precision int32 = 8

var hundred = decimal.NewFromInt(100)

// Calculator derives the daily analytics row of a date
//
//go:generate mockgen -source=calculator.go -destination=../mocks/calculator.go -package=mocks -mock_names=Calculator=MockCalculator
type Calculator interface {
	// Compute derives the analytics of date from that date's snapshots, exchange rate,
	// migration events and the analytics row of the day before. Nothing is written.
	Compute(ctx context.Context, date time.Time) (*schema.DailyAnalytics, error)
	// Persist upserts an analytics row on its date
	Persist(ctx context.Context, row *schema.DailyAnalytics) error
}

type calculator struct {
	store       store.Store
	pair        domain.MigrationPair
	burnedCount int64
}

// NewCalculator creates a calculator for the migration pair.
// burnedCount is added to the destination supply to obtain the total migrated.
func NewCalculator(st store.Store, pair domain.MigrationPair, burnedCount int64) Calculator {
	return &calculator{
		store:       st,
		pair:        pair,
		burnedCount: burnedCount,
	}
}

// Inputs are the values a daily analytics row is derived from
type Inputs struct {
	Date            time.Time
	EthPriceUSD     decimal.Decimal
	OriginsFloor    decimal.Decimal
	OriginsSupply   int64
	UndeadFloor     decimal.Decimal
	UndeadSupply    int64
	BurnedCount     int64
	MigrationEvents int64
	// Previous is the analytics row of the day before, nil when there is none
	Previous *schema.DailyAnalytics
}

// Compute implements Calculator
func (c *calculator) Compute(ctx context.Context, date time.Time) (*schema.DailyAnalytics, error) {
	date = domain.NormalizeDate(date)

	from, err := c.collection(ctx, c.pair.From)
	if err != nil {
		return nil, err
	}
	to, err := c.collection(ctx, c.pair.To)
	if err != nil {
		return nil, err
	}

	originsSnapshot, err := c.snapshot(ctx, from, date)
	if err != nil {
		return nil, err
	}
	undeadSnapshot, err := c.snapshot(ctx, to, date)
	if err != nil {
		return nil, err
	}

	price, err := c.store.GetEthPrice(ctx, date)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, fmt.Errorf("%w: no exchange rate for %s", domain.ErrDataUnavailable, domain.FormatDate(date))
	}

	previous, err := c.store.GetDailyAnalytics(ctx, domain.PreviousDate(date))
	if err != nil {
		return nil, err
	}

	events, err := c.store.CountMigrationsByDate(ctx, from.ID, to.ID, date)
	if err != nil {
		return nil, err
	}

	row := Derive(Inputs{
		Date:            date,
		EthPriceUSD:     price.EthPriceUSD,
		OriginsFloor:    originsSnapshot.FloorPriceEth,
		OriginsSupply:   originsSnapshot.TotalSupply,
		UndeadFloor:     undeadSnapshot.FloorPriceEth,
		UndeadSupply:    undeadSnapshot.TotalSupply,
		BurnedCount:     c.burnedCount,
		MigrationEvents: events,
		Previous:        previous,
	})

	logger.InfoCtx(ctx, "Computed daily analytics",
		zap.String("date", domain.FormatDate(date)),
		zap.String("eth_price_usd", row.EthPriceUSD.String()),
		zap.Int64("undead_supply", row.UndeadSupply),
		zap.Int64("total_migrations", row.TotalMigrations),
		zap.Bool("has_previous", previous != nil),
	)

	return row, nil
}

// Persist implements Calculator
func (c *calculator) Persist(ctx context.Context, row *schema.DailyAnalytics) error {
	if err := c.store.UpsertDailyAnalytics(ctx, row); err != nil {
		return fmt.Errorf("failed to persist daily analytics: %w", err)
	}
	return nil
}

// Derive computes an analytics row. It is a pure function of its inputs.
func Derive(in Inputs) *schema.DailyAnalytics {
	originsMarketCap := MarketCap(in.OriginsFloor, in.EthPriceUSD, in.OriginsSupply)
	undeadMarketCap := MarketCap(in.UndeadFloor, in.EthPriceUSD, in.UndeadSupply)

	row := &schema.DailyAnalytics{
		AnalyticsDate:        domain.NormalizeDate(in.Date),
		EthPriceUSD:          in.EthPriceUSD,
		OriginsFloorEth:      in.OriginsFloor,
		OriginsSupply:        in.OriginsSupply,
		OriginsMarketCapUSD:  originsMarketCap,
		UndeadFloorEth:       in.UndeadFloor,
		UndeadSupply:         in.UndeadSupply,
		UndeadMarketCapUSD:   undeadMarketCap,
		TotalMigrations:      in.UndeadSupply + in.BurnedCount,
		MigrationPercent:     Percent(decimal.NewFromInt(in.UndeadSupply), decimal.NewFromInt(in.OriginsSupply)),
		PriceRatio:           Ratio(in.UndeadFloor, in.OriginsFloor),
		CombinedMarketCapUSD: originsMarketCap.Add(undeadMarketCap),
		MigrationEvents:      in.MigrationEvents,
	}

	if in.Previous != nil {
		row.OriginsFloorChange24h = PercentChange(in.OriginsFloor, in.Previous.OriginsFloorEth)
		row.UndeadFloorChange24h = PercentChange(in.UndeadFloor, in.Previous.UndeadFloorEth)

		change := in.UndeadSupply - in.Previous.UndeadSupply
		row.UndeadSupplyChange24h = &change
		row.DailyNewMigrations = max(change, 0)
	}

	return row
}

// MarketCap returns floor × rate × supply
func MarketCap(floor, rate decimal.Decimal, supply int64) decimal.Decimal {
	return floor.Mul(rate).Mul(decimal.NewFromInt(supply)).Round(precision)
}

// Percent returns part / whole × 100, null when whole is zero
func Percent(part, whole decimal.Decimal) decimal.NullDecimal {
	if whole.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Mul(hundred).DivRound(whole, precision))
}

// Ratio returns a / b, null when b is zero
func Ratio(a, b decimal.Decimal) decimal.NullDecimal {
	if b.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.DivRound(b, precision))
}

// PercentChange returns (current - previous) / previous × 100, null when previous is zero
func PercentChange(current, previous decimal.Decimal) decimal.NullDecimal {
	return Percent(current.Sub(previous), previous)
}

func (c *calculator) collection(ctx context.Context, slug string) (*schema.Collection, error) {
	collection, err := c.store.GetCollectionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, slug)
	}
	return collection, nil
}

func (c *calculator) snapshot(ctx context.Context, collection *schema.Collection, date time.Time) (*schema.DailySnapshot, error) {
	snapshot, err := c.store.GetDailySnapshot(ctx, collection.ID, date)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no snapshot of %s for %s", domain.ErrDataUnavailable, collection.Slug, domain.FormatDate(date))
	}
	return snapshot, nil
}
