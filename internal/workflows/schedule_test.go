package workflows_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/feral-file/gu-migration-tracker/internal/mocks"
	"github.com/feral-file/gu-migration-tracker/internal/workflows"
)

func TestStartDailySchedule(t *testing.T) {
	ctx := context.Background()
	cfg := workflows.ScheduleConfig{
		WorkflowID:   "gu-daily-run",
		TaskQueue:    "gu-migration-tracker",
		CronSchedule: "0 14 * * *",
	}

	t.Run("starts the cron workflow", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
		worker := workflows.NewWorker(mocks.NewMockExecutor(ctrl), workflows.WorkerConfig{})

		orchestrator.EXPECT().
			ExecuteWorkflow(ctx, gomock.Any(), gomock.Any(), workflows.DailyRunInput{}).
			DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
				assert.Equal(t, "gu-daily-run", options.ID)
				assert.Equal(t, "gu-migration-tracker", options.TaskQueue)
				assert.Equal(t, "0 14 * * *", options.CronSchedule)
				return client.WorkflowRun(nil), nil
			})

		require.NoError(t, workflows.StartDailySchedule(ctx, orchestrator, worker, cfg))
	})

	t.Run("already running is not an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
		worker := workflows.NewWorker(mocks.NewMockExecutor(ctrl), workflows.WorkerConfig{})

		orchestrator.EXPECT().
			ExecuteWorkflow(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-1"))

		require.NoError(t, workflows.StartDailySchedule(ctx, orchestrator, worker, cfg))
	})

	t.Run("other errors are returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
		worker := workflows.NewWorker(mocks.NewMockExecutor(ctrl), workflows.WorkerConfig{})

		orchestrator.EXPECT().
			ExecuteWorkflow(ctx, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, assert.AnError)

		err := workflows.StartDailySchedule(ctx, orchestrator, worker, cfg)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("incomplete config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		worker := workflows.NewWorker(mocks.NewMockExecutor(ctrl), workflows.WorkerConfig{})
		err := workflows.StartDailySchedule(ctx, mocks.NewMockTemporalOrchestrator(ctrl), worker, workflows.ScheduleConfig{})
		assert.Error(t, err)
	})
}
