package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/logger"
	temporalprovider "github.com/feral-file/gu-migration-tracker/internal/providers/temporal"
)

// ScheduleConfig identifies the cron execution of the DailyRun workflow
type ScheduleConfig struct {
	WorkflowID   string
	TaskQueue    string
	CronSchedule string
}

// StartDailySchedule starts the cron execution of DailyRun.
// An execution already running under the same workflow ID is left in place.
func StartDailySchedule(ctx context.Context, orchestrator temporalprovider.TemporalOrchestrator, w Worker, cfg ScheduleConfig) error {
	if cfg.WorkflowID == "" || cfg.TaskQueue == "" || cfg.CronSchedule == "" {
		return fmt.Errorf("workflow id, task queue and cron schedule are required")
	}

	run, err := orchestrator.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           cfg.WorkflowID,
		TaskQueue:    cfg.TaskQueue,
		CronSchedule: cfg.CronSchedule,
	}, w.DailyRun, DailyRunInput{})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			logger.InfoCtx(ctx, "Daily schedule already running", zap.String("workflow_id", cfg.WorkflowID))
			return nil
		}
		return fmt.Errorf("failed to start daily schedule: %w", err)
	}

	fields := []zap.Field{
		zap.String("workflow_id", cfg.WorkflowID),
		zap.String("cron", cfg.CronSchedule),
	}
	if run != nil {
		fields = append(fields, zap.String("run_id", run.GetRunID()))
	}
	logger.InfoCtx(ctx, "Daily schedule started", fields...)
	return nil
}
