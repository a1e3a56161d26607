package opensea

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/ratelimit"
)

const PROVIDER_NAME = domain.PROVIDER_OPENSEA

var ErrNoAPIKey = errors.New("no API key provided")

// CollectionDetails represents the response of the Get Collection endpoint
type CollectionDetails struct {
	Collection  string `json:"collection"`
	Name        string `json:"name"`
	TotalSupply int64  `json:"total_supply"`
}

// StatsTotal is the all-time section of the collection stats
type StatsTotal struct {
	Volume       decimal.NullDecimal `json:"volume"`
	Sales        int64               `json:"sales"`
	NumOwners    int64               `json:"num_owners"`
	MarketCap    decimal.NullDecimal `json:"market_cap"`
	FloorPrice   decimal.NullDecimal `json:"floor_price"`
	FloorSymbol  string              `json:"floor_price_symbol"`
	AveragePrice decimal.NullDecimal `json:"average_price"`
}

// StatsInterval is a windowed section of the collection stats
type StatsInterval struct {
	Interval string              `json:"interval"`
	Volume   decimal.NullDecimal `json:"volume"`
	Sales    int64               `json:"sales"`
}

// CollectionStats represents the response of the Get Collection Stats endpoint
type CollectionStats struct {
	Total     StatsTotal      `json:"total"`
	Intervals []StatsInterval `json:"intervals"`
}

// OneDayVolume returns the volume of the one_day interval, if reported
func (s *CollectionStats) OneDayVolume() (decimal.Decimal, bool) {
	for _, interval := range s.Intervals {
		if interval.Interval == "one_day" && interval.Volume.Valid {
			return interval.Volume.Decimal, true
		}
	}
	return decimal.Zero, false
}

// Owner is a holder of an NFT
type Owner struct {
	Address  string `json:"address"`
	Quantity int64  `json:"quantity"`
}

// NFT is an item of the collection NFT listing
type NFT struct {
	Identifier string  `json:"identifier"`
	Contract   string  `json:"contract"`
	Owners     []Owner `json:"owners"`
}

// NFTPage represents one page of the List NFTs by Collection endpoint
type NFTPage struct {
	NFTs []NFT  `json:"nfts"`
	Next string `json:"next"`
}

// Client defines the interface for OpenSea client operations to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../../mocks/opensea_client.go -package=mocks -mock_names=Client=MockOpenSeaClient
type Client interface {
	// GetCollection fetches the collection details, including its total supply
	GetCollection(ctx context.Context, slug string) (*CollectionDetails, error)
	// GetCollectionStats fetches floor price, owners and volume for a collection
	GetCollectionStats(ctx context.Context, slug string) (*CollectionStats, error)
	// ListNFTs fetches one page of the collection NFTs; cursor is empty for the first page
	ListNFTs(ctx context.Context, slug string, limit int, cursor string) (*NFTPage, error)
}

// OpenSeaClient implements OpenSea client
type OpenSeaClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	apiURL         string
	apiKey         string
	json           adapter.JSON
}

// NewClient creates a new OpenSea client
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, apiURL string, apiKey string, json adapter.JSON) Client {
	return &OpenSeaClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		apiURL:         apiURL,
		apiKey:         apiKey,
		json:           json,
	}
}

// GetCollection fetches the collection details from OpenSea API v2
func (c *OpenSeaClient) GetCollection(ctx context.Context, slug string) (*CollectionDetails, error) {
	var details CollectionDetails
	if err := c.get(ctx, fmt.Sprintf("%s/collections/%s", c.apiURL, url.PathEscape(slug)), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetCollectionStats fetches the collection stats from OpenSea API v2
func (c *OpenSeaClient) GetCollectionStats(ctx context.Context, slug string) (*CollectionStats, error) {
	var stats CollectionStats
	if err := c.get(ctx, fmt.Sprintf("%s/collections/%s/stats", c.apiURL, url.PathEscape(slug)), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListNFTs fetches a page of NFTs of a collection from OpenSea API v2
func (c *OpenSeaClient) ListNFTs(ctx context.Context, slug string, limit int, cursor string) (*NFTPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("next", cursor)
	}

	var page NFTPage
	endpoint := fmt.Sprintf("%s/collection/%s/nfts?%s", c.apiURL, url.PathEscape(slug), query.Encode())
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// get performs a rate limited GET and decodes the response into result
func (c *OpenSeaClient) get(ctx context.Context, endpoint string, result interface{}) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	headers := map[string]string{
		"X-API-KEY": c.apiKey,
	}

	respBody, err := ratelimit.Request(ctx, c.rateLimitProxy, PROVIDER_NAME, func(ctx context.Context) ([]byte, error) {
		body, err := c.httpClient.GetBytes(ctx, endpoint, headers)
		return body, adapter.ClassifyError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to call OpenSea API: %w", err)
	}

	if err := c.json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal OpenSea response: %w", err)
	}

	return nil
}
