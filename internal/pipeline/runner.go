package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/analytics"
	"github.com/feral-file/gu-migration-tracker/internal/config"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/messaging"
	"github.com/feral-file/gu-migration-tracker/internal/migration"
	"github.com/feral-file/gu-migration-tracker/internal/monitoring"
	"github.com/feral-file/gu-migration-tracker/internal/source"
	"github.com/feral-file/gu-migration-tracker/internal/store"
	"github.com/feral-file/gu-migration-tracker/internal/store/schema"
)

// Runner drives the daily run of a date through
// PENDING -> FETCHING -> SNAPSHOTTED -> DETECTED -> ANALYZED
//
//go:generate mockgen -source=runner.go -destination=../mocks/runner.go -package=mocks -mock_names=Runner=MockRunner
type Runner interface {
	// Run processes one date. Runs of the same date are serialised and a
	// completed date is a no-op.
	Run(ctx context.Context, date time.Time) domain.RunResult
	// Backfill runs every date in [from, to] in order and stops at the first failure
	Backfill(ctx context.Context, from, to time.Time) ([]domain.RunResult, error)
	// Close stops the fetch worker pool
	Close()
}

// Config holds the runner settings
type Config struct {
	Collections []domain.Collection
	Fetch       config.FetchConfig
	// FetchWorkers bounds the number of concurrent upstream fetches
	FetchWorkers int
}

// Deps holds the collaborators of the runner. Publisher and Monitor are optional.
type Deps struct {
	Store      store.Store
	Snapshots  source.SnapshotSource
	Prices     source.PriceSource
	Detector   migration.Detector
	Calculator analytics.Calculator
	Monitor    monitoring.Monitor
	Publisher  messaging.Publisher
	Clock      adapter.Clock
}

type runner struct {
	cfg   Config
	deps  Deps
	pool  pond.Pool
	locks *xsync.Map[string, *sync.Mutex]
}

// NewRunner creates a daily run orchestrator
func NewRunner(cfg Config, deps Deps) (Runner, error) {
	if len(cfg.Collections) == 0 {
		return nil, fmt.Errorf("at least one collection is required")
	}
	if deps.Store == nil || deps.Snapshots == nil || deps.Prices == nil ||
		deps.Detector == nil || deps.Calculator == nil || deps.Clock == nil {
		return nil, fmt.Errorf("missing runner dependency")
	}

	workers := cfg.FetchWorkers
	if workers <= 0 {
		// one per collection plus the exchange rate
		workers = len(cfg.Collections) + 1
	}

	return &runner{
		cfg:   cfg,
		deps:  deps,
		pool:  pond.NewPool(workers),
		locks: xsync.NewMap[string, *sync.Mutex](),
	}, nil
}

// Run implements Runner
func (r *runner) Run(ctx context.Context, date time.Time) domain.RunResult {
	date = domain.NormalizeDate(date)
	result := domain.RunResult{
		RunID:  uuid.NewString(),
		Date:   date,
		Status: domain.RunStatusRunning,
		Stage:  domain.RunStagePending,
	}

	mu, _ := r.locks.LoadOrStore(domain.FormatDate(date), &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()

	err := r.deps.Store.WithDateLock(ctx, date, func(ctx context.Context) error {
		result = r.run(ctx, result)
		return nil
	})
	if err != nil {
		result.Status = domain.RunStatusFailed
		result.Error = err
		logger.ErrorCtx(ctx, fmt.Errorf("daily run could not start: %w", err), zap.String("date", domain.FormatDate(date)))
	}

	return result
}

// run executes the stages of a date while the date lock is held
func (r *runner) run(ctx context.Context, result domain.RunResult) domain.RunResult {
	date := result.Date
	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.String("date", domain.FormatDate(date)),
	}

	previous, err := r.deps.Store.GetRunState(ctx, date)
	if err != nil {
		return r.fail(ctx, result, nil, err)
	}
	if previous != nil && domain.RunStage(previous.Stage) == domain.RunStageAnalyzed &&
		domain.RunStatus(previous.Status) == domain.RunStatusSucceeded {
		logger.InfoCtx(ctx, "Date already analyzed, nothing to do", append(fields, zap.String("previous_run_id", previous.RunID))...)
		result.RunID = previous.RunID
		result.Status = domain.RunStatusSucceeded
		result.Stage = domain.RunStageAnalyzed
		return result
	}

	state := &schema.RunState{
		RunDate:   date,
		RunID:     result.RunID,
		Status:    string(domain.RunStatusRunning),
		Attempts:  1,
		StartedAt: r.deps.Clock.Now().UTC(),
	}
	resumeFrom := domain.RunStagePending
	if previous != nil {
		state.Attempts = previous.Attempts + 1
		resumeFrom = domain.RunStage(previous.Stage)
	}

	logger.InfoCtx(ctx, "Starting daily run", append(fields,
		zap.Int("attempt", state.Attempts),
		zap.String("resume_from", string(resumeFrom)),
	)...)

	if !resumeFrom.Reached(domain.RunStageDetected) {
		// FETCHING
		result.Stage = domain.RunStageFetching
		if err := r.advance(ctx, state, domain.RunStageFetching); err != nil {
			return r.fail(ctx, result, state, err)
		}
		if err := r.fetch(ctx, date); err != nil {
			return r.fail(ctx, result, state, err)
		}

		// SNAPSHOTTED
		result.Stage = domain.RunStageSnapshotted
		if err := r.advance(ctx, state, domain.RunStageSnapshotted); err != nil {
			return r.fail(ctx, result, state, err)
		}
		events, err := r.deps.Detector.Detect(ctx, date)
		if err != nil {
			return r.fail(ctx, result, state, fmt.Errorf("failed to detect migrations: %w", err))
		}
		logger.InfoCtx(ctx, "Migration detection finished", append(fields, zap.Int("new_migrations", len(events)))...)

		// DETECTED
		result.Stage = domain.RunStageDetected
		if err := r.advance(ctx, state, domain.RunStageDetected); err != nil {
			return r.fail(ctx, result, state, err)
		}
	} else {
		logger.InfoCtx(ctx, "Migrations already detected, resuming at analytics", fields...)
		result.Stage = domain.RunStageDetected
		if err := r.advance(ctx, state, domain.RunStageDetected); err != nil {
			return r.fail(ctx, result, state, err)
		}
	}

	row, err := r.deps.Calculator.Compute(ctx, date)
	if err != nil {
		return r.fail(ctx, result, state, fmt.Errorf("failed to compute analytics: %w", err))
	}
	if err := r.deps.Calculator.Persist(ctx, row); err != nil {
		return r.fail(ctx, result, state, err)
	}

	// ANALYZED
	finishedAt := r.deps.Clock.Now().UTC()
	state.Stage = string(domain.RunStageAnalyzed)
	state.Status = string(domain.RunStatusSucceeded)
	state.Error = nil
	state.FinishedAt = &finishedAt
	if err := r.deps.Store.SaveRunState(ctx, state); err != nil {
		return r.fail(ctx, result, state, err)
	}

	result.Stage = domain.RunStageAnalyzed
	result.Status = domain.RunStatusSucceeded
	logger.InfoCtx(ctx, "Daily run succeeded", append(fields,
		zap.Int64("total_migrations", row.TotalMigrations),
		zap.Int64("migration_events", row.MigrationEvents),
	)...)

	velocity := r.monitor(ctx, result)
	r.publish(ctx, result, row, velocity, finishedAt)

	return result
}

// advance persists the stage the run has reached
func (r *runner) advance(ctx context.Context, state *schema.RunState, stage domain.RunStage) error {
	state.Stage = string(stage)
	if err := r.deps.Store.SaveRunState(ctx, state); err != nil {
		return fmt.Errorf("failed to save run state: %w", err)
	}
	return nil
}

// fail records the failure of the run in the stage it was in
func (r *runner) fail(ctx context.Context, result domain.RunResult, state *schema.RunState, err error) domain.RunResult {
	result.Status = domain.RunStatusFailed
	result.Error = err

	logger.ErrorCtx(ctx, fmt.Errorf("daily run failed: %w", err),
		zap.String("run_id", result.RunID),
		zap.String("date", domain.FormatDate(result.Date)),
		zap.String("stage", string(result.Stage)),
	)

	if state == nil {
		return result
	}

	// The failure must be recorded even when the caller's context is done
	saveCtx := context.WithoutCancel(ctx)

	finishedAt := r.deps.Clock.Now().UTC()
	message := err.Error()
	state.Status = string(domain.RunStatusFailed)
	state.Error = &message
	state.FinishedAt = &finishedAt
	if saveErr := r.deps.Store.SaveRunState(saveCtx, state); saveErr != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to save failed run state: %w", saveErr), zap.String("run_id", result.RunID))
	}

	alertErr := r.deps.Store.CreateAlert(saveCtx, store.CreateAlertInput{
		Date:     result.Date,
		Type:     schema.AlertTypeRunFailed,
		Severity: schema.AlertSeverityError,
		Message:  fmt.Sprintf("daily run failed in %s: %s", result.Stage, message),
		Details: map[string]interface{}{
			"run_id":   result.RunID,
			"stage":    result.Stage,
			"attempts": state.Attempts,
		},
	})
	if alertErr != nil {
		logger.WarnCtx(ctx, "Failed to record run failure alert", zap.Error(alertErr), zap.String("run_id", result.RunID))
	}

	return result
}

// fetch stores the exchange rate and the snapshot of every collection for date.
// Data already stored for date is reused. Every fetch runs to completion so that
// successful fetches are kept for the next attempt.
func (r *runner) fetch(ctx context.Context, date time.Time) error {
	collections, err := r.deps.Store.UpsertCollections(ctx, r.cfg.Collections)
	if err != nil {
		return fmt.Errorf("failed to register collections: %w", err)
	}

	errs := make([]error, len(collections)+1)
	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.Submit(func() {
		errs[0] = r.fetchRate(groupCtx, date)
	})
	for i, collection := range collections {
		group.Submit(func() {
			errs[i+1] = r.fetchSnapshot(groupCtx, collection, r.cfg.Collections[i], date)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.WarnCtx(ctx, "Fetch group encountered error", zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return errors.Join(errs...)
}

func (r *runner) fetchRate(ctx context.Context, date time.Time) error {
	stored, err := r.deps.Store.GetEthPrice(ctx, date)
	if err != nil {
		return err
	}
	if stored != nil {
		logger.DebugCtx(ctx, "Exchange rate already stored", zap.String("date", domain.FormatDate(date)))
		return nil
	}

	rate, err := fetchWithRetry(ctx, r.cfg.Fetch, "exchange rate", func(ctx context.Context) (decimal.Decimal, error) {
		return r.deps.Prices.FetchRate(ctx, date)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch exchange rate: %w", err)
	}

	if _, err := r.deps.Store.SaveEthPrice(ctx, date, rate, domain.PROVIDER_COINGECKO); err != nil {
		return err
	}
	return nil
}

func (r *runner) fetchSnapshot(ctx context.Context, collection schema.Collection, cfg domain.Collection, date time.Time) error {
	stored, err := r.deps.Store.GetDailySnapshot(ctx, collection.ID, date)
	if err != nil {
		return err
	}
	if stored != nil {
		logger.DebugCtx(ctx, "Snapshot already stored",
			zap.String("collection", collection.Slug),
			zap.String("date", domain.FormatDate(date)),
		)
		return nil
	}

	stats, err := fetchWithRetry(ctx, r.cfg.Fetch, collection.Slug, func(ctx context.Context) (*domain.CollectionStats, error) {
		return r.deps.Snapshots.FetchStats(ctx, cfg, date)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot of %s: %w", collection.Slug, err)
	}

	_, created, err := r.deps.Store.SaveSnapshot(ctx, store.SaveSnapshotInput{
		CollectionID: collection.ID,
		Date:         date,
		Stats:        *stats,
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot of %s: %w", collection.Slug, err)
	}

	logger.InfoCtx(ctx, "Snapshot stored",
		zap.String("collection", collection.Slug),
		zap.String("date", domain.FormatDate(date)),
		zap.Int64("total_supply", stats.TotalSupply),
		zap.String("floor_price", stats.FloorPriceNative.String()),
		zap.Int("holders", len(stats.Holders)),
		zap.Bool("created", created),
	)
	return nil
}

// monitor runs the anomaly checks and the velocity summary of an analyzed date.
// Failures are logged only, the analytics of the date are already committed.
func (r *runner) monitor(ctx context.Context, result domain.RunResult) *domain.MigrationVelocity {
	if r.deps.Monitor == nil {
		return nil
	}

	anomalies, err := r.deps.Monitor.Check(ctx, result.Date)
	if err != nil {
		logger.WarnCtx(ctx, "Anomaly checks failed", zap.Error(err), zap.String("run_id", result.RunID))
	} else if len(anomalies) > 0 {
		logger.WarnCtx(ctx, "Anomalies recorded for review",
			zap.String("run_id", result.RunID),
			zap.Int("anomalies", len(anomalies)),
		)
	}

	velocity, err := r.deps.Monitor.Velocity(ctx, result.Date)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to compute migration velocity", zap.Error(err), zap.String("run_id", result.RunID))
		return nil
	}
	return velocity
}

// publish announces the analytics of a date; failures are logged only
func (r *runner) publish(ctx context.Context, result domain.RunResult, row *schema.DailyAnalytics, velocity *domain.MigrationVelocity, completedAt time.Time) {
	if r.deps.Publisher == nil {
		return
	}

	event := messaging.RunCompletedEvent{
		RunID:           result.RunID,
		Date:            domain.FormatDate(result.Date),
		NewMigrations:   int(row.MigrationEvents),
		TotalMigrations: row.TotalMigrations,
		UndeadSupply:    row.UndeadSupply,
		Velocity:        velocity,
		CompletedAt:     completedAt,
	}
	if row.MigrationPercent.Valid {
		pct := row.MigrationPercent.Decimal.String()
		event.MigrationPercent = &pct
	}

	if err := r.deps.Publisher.PublishRunCompleted(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish run completed event", zap.Error(err), zap.String("run_id", result.RunID))
	}
}

// Backfill implements Runner
func (r *runner) Backfill(ctx context.Context, from, to time.Time) ([]domain.RunResult, error) {
	dates := domain.DateRange(from, to)
	if len(dates) == 0 {
		return nil, fmt.Errorf("invalid backfill range %s to %s", domain.FormatDate(from), domain.FormatDate(to))
	}

	results := make([]domain.RunResult, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := r.Run(ctx, date)
		results = append(results, result)
		if !result.Succeeded() {
			return results, fmt.Errorf("backfill stopped at %s: %w", domain.FormatDate(date), result.Error)
		}
	}

	logger.InfoCtx(ctx, "Backfill finished",
		zap.String("from", domain.FormatDate(dates[0])),
		zap.String("to", domain.FormatDate(dates[len(dates)-1])),
		zap.Int("dates", len(dates)),
	)

	return results, nil
}

// Close implements Runner
func (r *runner) Close() {
	r.pool.StopAndWait()
}
