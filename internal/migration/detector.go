package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// PotentialMigrationDetails is the payload of a potential migration alert
type PotentialMigrationDetails struct {
	Pair     string   `json:"pair"`
	TokenIDs []string `json:"token_ids"`
}

// Detector infers migration events from consecutive holder snapshots
//
//go:generate mockgen -source=detector.go -destination=../mocks/detector.go -package=mocks -mock_names=Detector=MockDetector
type Detector interface {
	// Detect records the migrations revealed by the snapshots of date for every
	// configured pair and returns only the events that were newly inserted
	Detect(ctx context.Context, date time.Time) ([]schema.Migration, error)
}

type detector struct {
	store store.Store
	pairs []domain.MigrationPair
}

// NewDetector creates a detector for the given migration pairs
func NewDetector(st store.Store, pairs []domain.MigrationPair) Detector {
	return &detector{
		store: st,
		pairs: pairs,
	}
}

// Detect implements Detector
func (d *detector) Detect(ctx context.Context, date time.Time) ([]schema.Migration, error) {
	date = domain.NormalizeDate(date)

	var events []schema.Migration
	for _, pair := range d.pairs {
		inserted, err := d.detectPair(ctx, pair, date)
		if err != nil {
			return nil, fmt.Errorf("failed to detect migrations for %s: %w", pair, err)
		}
		events = append(events, inserted...)
	}

	return events, nil
}

func (d *detector) detectPair(ctx context.Context, pair domain.MigrationPair, date time.Time) ([]schema.Migration, error) {
	from, err := d.collection(ctx, pair.From)
	if err != nil {
		return nil, err
	}
	to, err := d.collection(ctx, pair.To)
	if err != nil {
		return nil, err
	}

	for _, c := range []*schema.Collection{from, to} {
		snapshot, err := d.store.GetDailySnapshot(ctx, c.ID, date)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			return nil, fmt.Errorf("%w: no snapshot of %s for %s", domain.ErrDataUnavailable, c.Slug, domain.FormatDate(date))
		}
	}

	prevDate, err := d.store.GetLatestSnapshotDateBefore(ctx, from.ID, date)
	if err != nil {
		return nil, err
	}
	if prevDate == nil {
		logger.InfoCtx(ctx, "No earlier snapshot of the source collection, skipping detection",
			zap.String("pair", pair.String()),
			zap.String("date", domain.FormatDate(date)),
		)
		return nil, nil
	}

	prevSrc, err := d.store.GetHolders(ctx, from.ID, *prevDate)
	if err != nil {
		return nil, err
	}
	currSrc, err := d.store.GetHolders(ctx, from.ID, date)
	if err != nil {
		return nil, err
	}
	currDst, err := d.store.GetHolders(ctx, to.ID, date)
	if err != nil {
		return nil, err
	}

	migrated := FindMigrations(prevSrc, currSrc, currDst)
	inputs := make([]store.CreateMigrationInput, 0, len(migrated))
	for _, tokenID := range migrated {
		inputs = append(inputs, store.CreateMigrationInput{
			TokenID:          tokenID,
			FromCollectionID: from.ID,
			ToCollectionID:   to.ID,
			DetectedDate:     date,
			PreviousHolder:   holderPtr(prevSrc, tokenID),
			CurrentHolder:    holderPtr(currDst, tokenID),
		})
	}

	inserted, err := d.store.CreateMigrationEvents(ctx, inputs)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Detected migrations",
		zap.String("pair", pair.String()),
		zap.String("date", domain.FormatDate(date)),
		zap.String("previous_date", domain.FormatDate(*prevDate)),
		zap.Int("candidates", len(migrated)),
		zap.Int("inserted", len(inserted)),
	)

	if err := d.recordPotentialMigrations(ctx, pair, to, date, prevSrc, currSrc, currDst); err != nil {
		return nil, err
	}

	return inserted, nil
}

// recordPotentialMigrations raises one alert per date and pair for tokens that
// appeared in the destination without ever being seen in the source
func (d *detector) recordPotentialMigrations(
	ctx context.Context,
	pair domain.MigrationPair,
	to *schema.Collection,
	date time.Time,
	prevSrc, currSrc, currDst domain.HolderSet,
) error {
	prevDstDate, err := d.store.GetLatestSnapshotDateBefore(ctx, to.ID, date)
	if err != nil {
		return err
	}
	if prevDstDate == nil {
		return nil
	}

	prevDst, err := d.store.GetHolders(ctx, to.ID, *prevDstDate)
	if err != nil {
		return err
	}

	potential := FindPotentialMigrations(prevSrc, prevDst, currSrc, currDst)
	if len(potential) == 0 {
		return nil
	}

	logger.InfoCtx(ctx, "Found potential migrations for manual review",
		zap.String("pair", pair.String()),
		zap.String("date", domain.FormatDate(date)),
		zap.Strings("token_ids", potential),
	)

	exists, err := d.hasPotentialAlert(ctx, pair, date)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return d.store.CreateAlert(ctx, store.CreateAlertInput{
		Date:     date,
		Type:     schema.AlertTypePotentialMigration,
		Severity: schema.AlertSeverityInfo,
		Message:  fmt.Sprintf("%d tokens appeared in %s without a record in %s", len(potential), pair.To, pair.From),
		Details: PotentialMigrationDetails{
			Pair:     pair.String(),
			TokenIDs: potential,
		},
	})
}

func (d *detector) hasPotentialAlert(ctx context.Context, pair domain.MigrationPair, date time.Time) (bool, error) {
	alerts, err := d.store.ListAlerts(ctx, date)
	if err != nil {
		return false, err
	}
	for _, alert := range alerts {
		if alert.Type != schema.AlertTypePotentialMigration {
			continue
		}
		var details PotentialMigrationDetails
		if err := json.Unmarshal(alert.Details, &details); err != nil {
			continue
		}
		if details.Pair == pair.String() {
			return true, nil
		}
	}
	return false, nil
}

func (d *detector) collection(ctx context.Context, slug string) (*schema.Collection, error) {
	c, err := d.store.GetCollectionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, slug)
	}
	return c, nil
}

// FindMigrations returns the tokens held in the source at the previous snapshot
// that left the source and are present in the destination, in token order
func FindMigrations(prevSrc, currSrc, currDst domain.HolderSet) []string {
	var tokens []string
	for tokenID := range prevSrc {
		if !currSrc.Has(tokenID) && currDst.Has(tokenID) {
			tokens = append(tokens, tokenID)
		}
	}
	sortTokenIDs(tokens)
	return tokens
}

// FindPotentialMigrations returns the tokens new to the destination that were
// never part of the source in either snapshot, in token order
func FindPotentialMigrations(prevSrc, prevDst, currSrc, currDst domain.HolderSet) []string {
	var tokens []string
	for tokenID := range currDst {
		if !prevDst.Has(tokenID) && !prevSrc.Has(tokenID) && !currSrc.Has(tokenID) {
			tokens = append(tokens, tokenID)
		}
	}
	sortTokenIDs(tokens)
	return tokens
}

// sortTokenIDs orders decimal token ids numerically
func sortTokenIDs(tokens []string) {
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) < len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
}

func holderPtr(holders domain.HolderSet, tokenID string) *string {
	address, ok := holders[tokenID]
	if !ok {
		return nil
	}
	return &address
}
