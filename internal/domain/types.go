package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet || chain == ChainEthereumSepolia
}

// Collection is the immutable identity of a tracked NFT collection
type Collection struct {
	// Slug is the marketplace slug, used as the natural key (e.g. "gu-origins")
	Slug string `mapstructure:"slug"`
	// DisplayName is the human readable name
	DisplayName string `mapstructure:"display_name"`
	// ContractAddress is the token contract address
	ContractAddress string `mapstructure:"contract_address"`
	// Chain is the chain the contract is deployed on
	Chain Chain `mapstructure:"chain"`
	// FixedSupply is set for collections whose total supply never changes.
	// When set it overrides the supply reported by the marketplace.
	FixedSupply *int64 `mapstructure:"fixed_supply"`
}

// Validate checks the collection identity
func (c Collection) Validate() error {
	if strings.TrimSpace(c.Slug) == "" {
		return fmt.Errorf("collection slug is required")
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("collection %s: invalid contract address %q", c.Slug, c.ContractAddress)
	}
	if c.Chain != "" && !IsValidChain(c.Chain) {
		return fmt.Errorf("collection %s: invalid chain %q", c.Slug, c.Chain)
	}
	if c.FixedSupply != nil && *c.FixedSupply <= 0 {
		return fmt.Errorf("collection %s: fixed supply must be positive", c.Slug)
	}
	return nil
}

// MigrationPair names a source collection whose tokens migrate into a destination collection
type MigrationPair struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

func (p MigrationPair) String() string {
	return fmt.Sprintf("%s->%s", p.From, p.To)
}

// HolderSet maps token ID to the lower-cased holder address
type HolderSet map[string]string

// Has reports whether the token is present in the set
func (h HolderSet) Has(tokenID string) bool {
	_, ok := h[tokenID]
	return ok
}

// CollectionStats is what the snapshot source reports for a collection on a date
type CollectionStats struct {
	Slug             string
	TotalSupply      int64
	FloorPriceNative decimal.Decimal
	Holders          HolderSet

	// Optional enrichments
	NumOwners       *int64
	Volume24hNative *decimal.Decimal
	MarketCapNative *decimal.Decimal
}

// RunStage is a state of the daily run state machine
type RunStage string

const (
	RunStagePending     RunStage = "PENDING"
	RunStageFetching    RunStage = "FETCHING"
	RunStageSnapshotted RunStage = "SNAPSHOTTED"
	RunStageDetected    RunStage = "DETECTED"
	RunStageAnalyzed    RunStage = "ANALYZED"
)

var runStageOrder = map[RunStage]int{
	RunStagePending:     0,
	RunStageFetching:    1,
	RunStageSnapshotted: 2,
	RunStageDetected:    3,
	RunStageAnalyzed:    4,
}

// Reached reports whether s is at or beyond other in the run sequence
func (s RunStage) Reached(other RunStage) bool {
	return runStageOrder[s] >= runStageOrder[other]
}

// RunStatus is the outcome of a daily run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// RunResult reports how far a daily run got.
// For a failed run Stage is the state the run was in when it failed.
type RunResult struct {
	RunID  string
	Date   time.Time
	Status RunStatus
	Stage  RunStage
	Error  error
}

// Succeeded returns true if the run reached the terminal success state
func (r RunResult) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// VelocityTrend compares the migrations of the last seven days with the seven days before
type VelocityTrend string

const (
	VelocityTrendInsufficientData VelocityTrend = "insufficient_data"
	VelocityTrendNewActivity      VelocityTrend = "new_activity"
	VelocityTrendAccelerating     VelocityTrend = "accelerating"
	VelocityTrendDecelerating     VelocityTrend = "decelerating"
	VelocityTrendStable           VelocityTrend = "stable"
)

// MigrationVelocity summarises the migration progress of a pair as of a date
type MigrationVelocity struct {
	// TotalMigrated is the total migrated count of the analytics row
	TotalMigrated int64 `json:"total_migrated"`
	// SourceSupply is the supply of the source collection
	SourceSupply int64 `json:"source_supply"`
	// MigrationRatePercent is TotalMigrated / SourceSupply × 100, null when the supply is zero
	MigrationRatePercent decimal.NullDecimal `json:"migration_rate_percent"`
	// RemainingTokens is the part of the source supply not migrated yet
	RemainingTokens int64 `json:"remaining_tokens"`
	// DetectedMigrations counts the migration events detected up to the date
	DetectedMigrations int64 `json:"detected_migrations"`
	// DetectedLast7Days counts the migration events detected in the seven days ending on the date
	DetectedLast7Days int64 `json:"detected_last_7_days"`
	// WeeklyAverage is the average daily new migrations over the seven days ending on the date
	WeeklyAverage decimal.Decimal `json:"weekly_average"`
	// EstimatedDaysToComplete is nil when there is no recent progress or the estimate exceeds 1000 days
	EstimatedDaysToComplete *int64        `json:"estimated_days_to_complete,omitempty"`
	Trend                   VelocityTrend `json:"trend"`
}

// NormalizeAddress validates and lower-cases a hex address.
// Returns an empty string when the address is not a valid hex address.
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// ValidTokenID checks that a token identifier is a non-negative decimal integer.
// Token IDs can exceed uint64, so only the digits are checked.
func ValidTokenID(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	for _, r := range tokenID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
