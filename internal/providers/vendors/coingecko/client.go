package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/ratelimit"
)

const (
	PROVIDER_NAME = domain.PROVIDER_COINGECKO

	// historyDateLayout is the dd-mm-yyyy format of the coin history endpoint
	historyDateLayout = "02-01-2006"

	apiKeyHeader = "x-cg-demo-api-key"
)

// SimplePriceResponse maps coin id to a map of vs currency to price
type SimplePriceResponse map[string]map[string]decimal.NullDecimal

// HistoryResponse represents the response of the coin history endpoint
type HistoryResponse struct {
	ID         string `json:"id"`
	MarketData *struct {
		CurrentPrice map[string]decimal.NullDecimal `json:"current_price"`
	} `json:"market_data"`
}

// Client defines the interface for CoinGecko client operations to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../../mocks/coingecko_client.go -package=mocks -mock_names=Client=MockCoinGeckoClient
type Client interface {
	// GetCurrentPrice returns the latest price of coinID in vsCurrency
	GetCurrentPrice(ctx context.Context, coinID, vsCurrency string) (decimal.Decimal, error)
	// GetHistoricalPrice returns the price of coinID in vsCurrency at 00:00 UTC of date
	GetHistoricalPrice(ctx context.Context, coinID, vsCurrency string, date time.Time) (decimal.Decimal, error)
}

// CoinGeckoClient implements CoinGecko client
type CoinGeckoClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	apiURL         string
	apiKey         string
	json           adapter.JSON
}

// NewClient creates a new CoinGecko client. The API key is optional.
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, apiURL string, apiKey string, json adapter.JSON) Client {
	return &CoinGeckoClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		apiURL:         strings.TrimSuffix(apiURL, "/"),
		apiKey:         apiKey,
		json:           json,
	}
}

// GetCurrentPrice fetches the price from the simple price endpoint
func (c *CoinGeckoClient) GetCurrentPrice(ctx context.Context, coinID, vsCurrency string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("ids", coinID)
	query.Set("vs_currencies", vsCurrency)

	var response SimplePriceResponse
	if err := c.get(ctx, fmt.Sprintf("%s/simple/price?%s", c.apiURL, query.Encode()), &response); err != nil {
		return decimal.Zero, err
	}

	price, ok := response[coinID][vsCurrency]
	if !ok || !price.Valid {
		return decimal.Zero, fmt.Errorf("%w: no %s price for %s", domain.ErrNotFound, vsCurrency, coinID)
	}

	return price.Decimal, nil
}

// GetHistoricalPrice fetches the price from the coin history endpoint
func (c *CoinGeckoClient) GetHistoricalPrice(ctx context.Context, coinID, vsCurrency string, date time.Time) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("date", date.UTC().Format(historyDateLayout))
	query.Set("localization", "false")

	var response HistoryResponse
	endpoint := fmt.Sprintf("%s/coins/%s/history?%s", c.apiURL, url.PathEscape(coinID), query.Encode())
	if err := c.get(ctx, endpoint, &response); err != nil {
		return decimal.Zero, err
	}

	if response.MarketData == nil {
		return decimal.Zero, fmt.Errorf("%w: no market data for %s on %s", domain.ErrNotFound, coinID, domain.FormatDate(date))
	}

	price, ok := response.MarketData.CurrentPrice[vsCurrency]
	if !ok || !price.Valid {
		return decimal.Zero, fmt.Errorf("%w: no %s price for %s on %s", domain.ErrNotFound, vsCurrency, coinID, domain.FormatDate(date))
	}

	return price.Decimal, nil
}

// get performs a rate limited GET and decodes the response into result
func (c *CoinGeckoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{apiKeyHeader: c.apiKey}
	}

	respBody, err := ratelimit.Request(ctx, c.rateLimitProxy, PROVIDER_NAME, func(ctx context.Context) ([]byte, error) {
		body, err := c.httpClient.GetBytes(ctx, endpoint, headers)
		return body, adapter.ClassifyError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to call CoinGecko API: %w", err)
	}

	if err := c.json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal CoinGecko response: %w", err)
	}

	return nil
}
