package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/adapter"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/pipeline"
)

// Scheduler triggers the daily run of the current UTC date on a cron spec.
// The cron expression has a seconds field, e.g. "0 0 14 * * *".
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	runner  pipeline.Runner
	clock   adapter.Clock
	baseCtx context.Context
	spec    string
}

// New creates a scheduler. Ticks are skipped while the previous run is still going.
func New(ctx context.Context, spec string, runner pipeline.Runner, clock adapter.Clock) (*Scheduler, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cronLogger := &zapCronLogger{logger: logger.Named("scheduler").Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:  runner,
		clock:   clock,
		baseCtx: ctx,
		spec:    spec,
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(s.baseCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entryID = id

	return s, nil
}

// RunOnce runs the pipeline for the current UTC date
func (s *Scheduler) RunOnce(ctx context.Context) domain.RunResult {
	date := domain.NormalizeDate(s.clock.Now())
	logger.InfoCtx(ctx, "Scheduled daily run triggered", zap.String("date", domain.FormatDate(date)))

	result := s.runner.Run(ctx, date)
	if !result.Succeeded() {
		logger.WarnCtx(ctx, "Scheduled daily run did not succeed",
			zap.String("date", domain.FormatDate(date)),
			zap.String("run_id", result.RunID),
			zap.String("stage", string(result.Stage)),
			zap.Error(result.Error),
		)
	}
	return result
}

// NextRun returns the first scheduled time after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.cron.Entry(s.entryID).Schedule.Next(t)
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Scheduler started", zap.String("spec", s.spec))
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
