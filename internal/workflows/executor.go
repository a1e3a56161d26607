package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
	"github.com/feral-file/gu-migration-tracker/internal/pipeline"
)

// Application error types reported by the daily run activity.
// ErrorTypeTransientFetch and ErrorTypeRunFailed are retried by the workflow
// retry policy, the others fail the workflow on the first attempt.
const (
	ErrorTypeTransientFetch     = "TransientFetch"
	ErrorTypeDataUnavailable    = "DataUnavailable"
	ErrorTypeConsistency        = "ConsistencyViolation"
	ErrorTypeInvalidRunDate     = "InvalidRunDate"
	ErrorTypeRunFailed          = "RunFailed"
	ErrorTypeCollectionNotFound = "CollectionNotFound"
	ErrorTypeUpstreamNotFound   = "UpstreamNotFound"
)

// DailyRunOutput is the serialisable result of a daily run
type DailyRunOutput struct {
	RunID  string `json:"run_id"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Error  string `json:"error,omitempty"`
}

// Executor defines the activities of the tracker workflows
//
//go:generate mockgen -source=executor.go -destination=../mocks/executor.go -package=mocks -mock_names=Executor=MockExecutor
type Executor interface {
	// RunDailyPipeline runs the daily pipeline for date (YYYY-MM-DD).
	// A failed run is returned as an application error whose type tells
	// the workflow whether another attempt can help.
	RunDailyPipeline(ctx context.Context, date string) (*DailyRunOutput, error)
}

type executor struct {
	runner pipeline.Runner
}

// NewExecutor creates a new executor instance
func NewExecutor(runner pipeline.Runner) Executor {
	return &executor{runner: runner}
}

// RunDailyPipeline implements Executor
func (e *executor) RunDailyPipeline(ctx context.Context, date string) (*DailyRunOutput, error) {
	runDate, err := domain.ParseDate(date)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidRunDate, err)
	}

	logger.InfoCtx(ctx, "Running daily pipeline", zap.String("date", date))

	result := e.runner.Run(ctx, runDate)
	output := &DailyRunOutput{
		RunID:  result.RunID,
		Date:   domain.FormatDate(result.Date),
		Status: string(result.Status),
		Stage:  string(result.Stage),
	}
	if result.Succeeded() {
		return output, nil
	}

	runErr := result.Error
	if runErr == nil {
		runErr = fmt.Errorf("daily run ended with status %s", result.Status)
	}
	output.Error = runErr.Error()

	return nil, classifyRunError(runErr, output)
}

// classifyRunError maps a pipeline failure to a Temporal application error
func classifyRunError(err error, output *DailyRunOutput) error {
	message := fmt.Sprintf("daily run %s failed in %s", output.Date, output.Stage)

	switch {
	case errors.Is(err, domain.ErrTransientFetch):
		return temporal.NewApplicationErrorWithCause(message, ErrorTypeTransientFetch, err, output)
	case errors.Is(err, domain.ErrDataUnavailable):
		return temporal.NewNonRetryableApplicationError(message, ErrorTypeDataUnavailable, err, output)
	case errors.Is(err, domain.ErrConsistencyViolation):
		return temporal.NewNonRetryableApplicationError(message, ErrorTypeConsistency, err, output)
	case errors.Is(err, domain.ErrCollectionNotFound):
		return temporal.NewNonRetryableApplicationError(message, ErrorTypeCollectionNotFound, err, output)
	case errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(message, ErrorTypeUpstreamNotFound, err, output)
	default:
		// store and lock failures may clear up on their own
		return temporal.NewApplicationErrorWithCause(message, ErrorTypeRunFailed, err, output)
	}
}
