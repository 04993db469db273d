package metrics_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	inframetrics "github.com/tigerroll/trajbatch/pkg/batch/infrastructure/metrics"
)

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	ctx := context.Background()
	r := inframetrics.NewPrometheusRecorder()

	je := model.NewJobExecution("dailyTrajectoryJob", model.NewJobParameters())
	je.MarkAsStarted()
	r.RecordJobStart(ctx, je)

	se := model.NewStepExecution(je, "runs/site-a")
	se.MarkAsStarted()
	r.RecordControlRender(ctx, se.StepName)
	r.RecordInvocation(ctx, se.StepName, "success", 150*time.Millisecond)
	r.RecordInvocation(ctx, se.StepName, "failure", 20*time.Millisecond)
	se.MarkAsCompleted(model.ExitStatusCompletedWithFailures)
	r.RecordStepEnd(ctx, se)
	r.RecordRowSkip(ctx, "MalformedRowError")

	je.MarkAsCompleted()
	r.RecordJobEnd(ctx, je)

	path := filepath.Join(t.TempDir(), "trajbatch.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `trajbatch_invocation_total{outcome="success",run="runs/site-a"} 1`)
	assert.Contains(t, text, `trajbatch_invocation_total{outcome="failure",run="runs/site-a"} 1`)
	assert.Contains(t, text, `trajbatch_control_render_total{run="runs/site-a"} 1`)
	assert.Contains(t, text, `trajbatch_row_skip_total{reason="MalformedRowError"} 1`)
	assert.Contains(t, text, `trajbatch_run_status_total{exit_status="COMPLETED_WITH_FAILURES",job_name="dailyTrajectoryJob",status="COMPLETED"} 1`)
	assert.Contains(t, text, "trajbatch_job_duration_seconds_count")
}

func TestPrometheusRecorder_IgnoresUnfinishedExecutions(t *testing.T) {
	ctx := context.Background()
	r := inframetrics.NewPrometheusRecorder()

	je := model.NewJobExecution("job", model.NewJobParameters())
	se := model.NewStepExecution(je, "run")
	r.RecordStepEnd(ctx, se)
	r.RecordJobEnd(ctx, je)

	families, err := r.GetRegistry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.NotEqual(t, "trajbatch_run_status_total", mf.GetName())
		assert.NotEqual(t, "trajbatch_job_duration_seconds", mf.GetName())
	}
}
