package source

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/coingecko"
)

const (
	coinEthereum = "ethereum"
	currencyUSD  = "usd"
)

// CoinGeckoPriceSource reports the ETH/USD rate from CoinGecko
type CoinGeckoPriceSource struct {
	client coingecko.Client
	clock  adapter.Clock
}

// NewCoinGeckoPriceSource creates a price source backed by CoinGecko
func NewCoinGeckoPriceSource(client coingecko.Client, clock adapter.Clock) *CoinGeckoPriceSource {
	return &CoinGeckoPriceSource{
		client: client,
		clock:  clock,
	}
}

// FetchRate returns the live rate for the current UTC date and the
// historical daily rate for earlier dates
func (s *CoinGeckoPriceSource) FetchRate(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	date := domain.NormalizeDate(asOf)
	today := domain.NormalizeDate(s.clock.Now())

	var (
		rate decimal.Decimal
		err  error
	)
	if date.Equal(today) {
		rate, err = s.client.GetCurrentPrice(ctx, coinEthereum, currencyUSD)
	} else {
		rate, err = s.client.GetHistoricalPrice(ctx, coinEthereum, currencyUSD, date)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch ETH/USD rate for %s: %w", domain.FormatDate(date), err)
	}

	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive ETH/USD rate %s for %s", domain.ErrNotFound, rate, domain.FormatDate(date))
	}

	return rate, nil
}
