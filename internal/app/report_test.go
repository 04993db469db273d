package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usecase "github.com/tigerroll/trajbatch/pkg/batch/core/application/usecase"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/inmemory"
)

func finishedExecution(status model.JobStatus, exit model.ExitStatus) *model.JobExecution {
	je := model.NewJobExecution("dailyTrajectoryJob", model.NewJobParameters())
	end := je.StartTime.Add(90 * time.Second)
	je.EndTime = &end
	je.Status = status
	je.ExitStatus = exit
	return je
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		je     *model.JobExecution
		expect int
	}{
		{"no execution", nil, ExitCodeFailed},
		{"completed", finishedExecution(model.BatchStatusCompleted, model.ExitStatusCompleted), ExitCodeCompleted},
		{"completed with failures", finishedExecution(model.BatchStatusCompleted, model.ExitStatusCompletedWithFailures), ExitCodeCompletedWithFailures},
		{"failed", finishedExecution(model.BatchStatusFailed, model.ExitStatusFailed), ExitCodeFailed},
		{"stopped", finishedExecution(model.BatchStatusStopped, model.ExitStatusStopped), ExitCodeStopped},
		{"abandoned", finishedExecution(model.BatchStatusAbandoned, model.ExitStatusUnknown), ExitCodeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ExitCode(tt.je))
		})
	}
}

func TestWriteSummary(t *testing.T) {
	je := finishedExecution(model.BatchStatusFailed, model.ExitStatusFailed)
	ok := model.NewStepExecution(je, "site_a")
	ok.Status = model.BatchStatusCompleted
	ok.ExitStatus = model.ExitStatusCompletedWithFailures
	ok.RenderCount = 6
	ok.InvocationCount = 6
	ok.InvocationFailureCount = 1
	je.AddStepExecution(ok)
	je.AddFailureException(errors.New("run 'site_b' (row 2): directory not writable"))

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, je))

	out := buf.String()
	assert.Contains(t, out, "Job 'dailyTrajectoryJob'")
	assert.Contains(t, out, "FAILED / FAILED, elapsed 1m30s")
	assert.Contains(t, out, "RUN")
	assert.Regexp(t, `site_a\s+COMPLETED\s+COMPLETED_WITH_FAILURES\s+6\s+6\s+1`, out)
	assert.Contains(t, out, "  - run 'site_b' (row 2): directory not writable")
}

func TestShowLastExecution(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()
	explorer := usecase.NewSimpleJobExplorer(repo)

	var buf bytes.Buffer
	je, err := ShowLastExecution(ctx, explorer, "dailyTrajectoryJob", &buf)
	require.NoError(t, err)
	assert.Nil(t, je)
	assert.Empty(t, buf.String())
	assert.Equal(t, ExitCodeFailed, ExitCode(je))

	saved := finishedExecution(model.BatchStatusCompleted, model.ExitStatusCompleted)
	require.NoError(t, repo.SaveJobExecution(ctx, saved))

	je, err = ShowLastExecution(ctx, explorer, "dailyTrajectoryJob", &buf)
	require.NoError(t, err)
	require.NotNil(t, je)
	assert.Equal(t, saved.ID, je.ID)
	assert.Contains(t, buf.String(), "COMPLETED / COMPLETED")
}
