package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
)

// DailyRunInput is the input of the DailyRun workflow.
// An empty Date runs the UTC date of the workflow start, which is what cron
// scheduled executions use.
type DailyRunInput struct {
	Date string `json:"date,omitempty"`
}

// BackfillInput is the input of the Backfill workflow, dates are inclusive
type BackfillInput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Worker defines the tracker workflows
type Worker interface {
	// DailyRun runs the daily pipeline for one date
	DailyRun(ctx workflow.Context, input DailyRunInput) (*DailyRunOutput, error)

	// Backfill runs DailyRun as a child workflow for every date in the range,
	// in order, and stops at the first failure
	Backfill(ctx workflow.Context, input BackfillInput) ([]DailyRunOutput, error)
}

// WorkerConfig holds the activity settings of the workflows
type WorkerConfig struct {
	// ActivityTimeout bounds one attempt of the daily pipeline
	ActivityTimeout time.Duration
	// MaxAttempts bounds the attempts of a retryable daily pipeline failure
	MaxAttempts int32
	// RetryInterval is the wait before the first retry
	RetryInterval time.Duration
}

type worker struct {
	config   WorkerConfig
	executor Executor
}

// NewWorker creates a new worker instance
func NewWorker(executor Executor, config WorkerConfig) Worker {
	if config.ActivityTimeout <= 0 {
		config.ActivityTimeout = 30 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Minute
	}

	return &worker{
		config:   config,
		executor: executor,
	}
}

// DailyRun implements Worker
func (w *worker) DailyRun(ctx workflow.Context, input DailyRunInput) (*DailyRunOutput, error) {
	date := input.Date
	if date == "" {
		date = domain.FormatDate(workflow.Now(ctx))
	}

	logger.InfoWf(ctx, "Starting daily run workflow", zap.String("date", date))

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: w.config.ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    w.config.RetryInterval,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    w.config.MaxAttempts,
			NonRetryableErrorTypes: []string{
				ErrorTypeInvalidRunDate,
				ErrorTypeDataUnavailable,
				ErrorTypeConsistency,
				ErrorTypeCollectionNotFound,
				ErrorTypeUpstreamNotFound,
			},
		},
	})

	var output DailyRunOutput
	if err := workflow.ExecuteActivity(ctx, w.executor.RunDailyPipeline, date).Get(ctx, &output); err != nil {
		logger.ErrorWf(ctx, fmt.Errorf("daily run workflow failed: %w", err), zap.String("date", date))
		return nil, err
	}

	logger.InfoWf(ctx, "Daily run workflow completed",
		zap.String("date", output.Date),
		zap.String("run_id", output.RunID),
		zap.String("stage", output.Stage),
	)

	return &output, nil
}

// Backfill implements Worker
func (w *worker) Backfill(ctx workflow.Context, input BackfillInput) ([]DailyRunOutput, error) {
	from, err := domain.ParseDate(input.From)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidRunDate, err)
	}
	to, err := domain.ParseDate(input.To)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidRunDate, err)
	}

	dates := domain.DateRange(from, to)
	if len(dates) == 0 {
		err := fmt.Errorf("invalid backfill range %s to %s", input.From, input.To)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidRunDate, err)
	}

	parentID := workflow.GetInfo(ctx).WorkflowExecution.ID
	logger.InfoWf(ctx, "Starting backfill workflow",
		zap.String("from", input.From),
		zap.String("to", input.To),
		zap.Int("dates", len(dates)),
	)

	outputs := make([]DailyRunOutput, 0, len(dates))
	for _, date := range dates {
		day := domain.FormatDate(date)
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("%s-%s", parentID, day),
		})

		var output *DailyRunOutput
		if err := workflow.ExecuteChildWorkflow(childCtx, w.DailyRun, DailyRunInput{Date: day}).Get(childCtx, &output); err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("backfill stopped: %w", err), zap.String("date", day))
			return outputs, fmt.Errorf("backfill stopped at %s: %w", day, err)
		}
		if output != nil {
			outputs = append(outputs, *output)
		}
	}

	logger.InfoWf(ctx, "Backfill workflow completed", zap.Int("dates", len(outputs)))
	return outputs, nil
}
