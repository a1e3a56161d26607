package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/providers/vendors/opensea"
)

// OpenSeaSnapshotSource builds collection snapshots from the OpenSea API.
// OpenSea only reports the live state of a collection, so a snapshot can only
// be taken for the current UTC date, or for the day before while liveGrace
// has not elapsed since midnight.
type OpenSeaSnapshotSource struct {
	client    opensea.Client
	clock     adapter.Clock
	pageLimit int
	maxPages  int
	liveGrace time.Duration
}

// NewOpenSeaSnapshotSource creates a snapshot source backed by OpenSea
func NewOpenSeaSnapshotSource(client opensea.Client, clock adapter.Clock, pageLimit int, maxPages int, liveGrace time.Duration) *OpenSeaSnapshotSource {
	if pageLimit <= 0 {
		pageLimit = 200
	}
	if maxPages <= 0 {
		maxPages = 100
	}
	return &OpenSeaSnapshotSource{
		client:    client,
		clock:     clock,
		pageLimit: pageLimit,
		maxPages:  maxPages,
		liveGrace: max(liveGrace, 0),
	}
}

// servesLive reports whether the live state of a collection may be recorded as
// the snapshot of asOf
func (s *OpenSeaSnapshotSource) servesLive(asOf time.Time) bool {
	now := s.clock.Now().UTC()
	today := domain.NormalizeDate(now)
	day := domain.NormalizeDate(asOf)

	if day.Equal(today) {
		return true
	}
	return day.Equal(domain.PreviousDate(today)) && now.Sub(today) < s.liveGrace
}

// FetchStats fetches supply, floor price and the holder listing of a collection
func (s *OpenSeaSnapshotSource) FetchStats(ctx context.Context, collection domain.Collection, asOf time.Time) (*domain.CollectionStats, error) {
	if !s.servesLive(asOf) {
		return nil, fmt.Errorf("%w: OpenSea only reports the live state of %s, not the state as of %s",
			domain.ErrDataUnavailable, collection.Slug, domain.FormatDate(asOf))
	}

	stats, err := s.client.GetCollectionStats(ctx, collection.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats of %s: %w", collection.Slug, err)
	}

	result := &domain.CollectionStats{
		Slug: collection.Slug,
	}
	if stats.Total.FloorPrice.Valid {
		result.FloorPriceNative = stats.Total.FloorPrice.Decimal
	}
	if stats.Total.NumOwners > 0 {
		numOwners := stats.Total.NumOwners
		result.NumOwners = &numOwners
	}
	if stats.Total.MarketCap.Valid {
		marketCap := stats.Total.MarketCap.Decimal
		result.MarketCapNative = &marketCap
	}
	if volume, ok := stats.OneDayVolume(); ok {
		result.Volume24hNative = &volume
	}

	if collection.FixedSupply != nil {
		result.TotalSupply = *collection.FixedSupply
	} else {
		details, err := s.client.GetCollection(ctx, collection.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to get details of %s: %w", collection.Slug, err)
		}
		result.TotalSupply = details.TotalSupply
	}

	holders, err := s.fetchHolders(ctx, collection.Slug)
	if err != nil {
		return nil, err
	}
	result.Holders = holders

	logger.DebugCtx(ctx, "Fetched collection stats",
		zap.String("collection", collection.Slug),
		zap.Int64("total_supply", result.TotalSupply),
		zap.String("floor_price", result.FloorPriceNative.String()),
		zap.Int("holders", len(holders)),
	)

	return result, nil
}

// fetchHolders walks the NFT listing and returns the token to holder mapping.
// A listing longer than maxPages is an error since a truncated set would
// make unseen tokens look migrated.
func (s *OpenSeaSnapshotSource) fetchHolders(ctx context.Context, slug string) (domain.HolderSet, error) {
	holders := make(domain.HolderSet)
	cursor := ""
	skipped := 0

	for page := 0; ; page++ {
		if page >= s.maxPages {
			return nil, fmt.Errorf("holder listing of %s exceeds %d pages", slug, s.maxPages)
		}

		resp, err := s.client.ListNFTs(ctx, slug, s.pageLimit, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list NFTs of %s: %w", slug, err)
		}

		for _, nft := range resp.NFTs {
			if !domain.ValidTokenID(nft.Identifier) || len(nft.Owners) == 0 {
				skipped++
				continue
			}
			address := domain.NormalizeAddress(nft.Owners[0].Address)
			if address == "" {
				skipped++
				continue
			}
			holders[nft.Identifier] = address
		}

		if resp.Next == "" {
			break
		}
		cursor = resp.Next
	}

	if skipped > 0 {
		logger.WarnCtx(ctx, "Skipped NFTs without a valid token id or owner",
			zap.String("collection", slug),
			zap.Int("skipped", skipped),
		)
	}

	return holders, nil
}
