package inmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/inmemory"
)

func TestInMemoryJobRepository_JobAndSteps(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()
	var _ repository.JobRepository = repo

	je := model.NewJobExecution("dailyTrajectoryJob", model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(ctx, je))
	assert.Error(t, repo.SaveJobExecution(ctx, je))

	first := model.NewStepExecution(je, "out/a")
	second := model.NewStepExecution(je, "out/b")
	require.NoError(t, repo.SaveStepExecution(ctx, first))
	require.NoError(t, repo.SaveStepExecution(ctx, second))

	second.MarkAsStarted()
	second.MarkAsFailed(assert.AnError)
	require.NoError(t, repo.UpdateStepExecution(ctx, second))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	require.Len(t, found.StepExecutions, 2)
	assert.Equal(t, "out/a", found.StepExecutions[0].StepName)
	assert.Equal(t, model.BatchStatusFailed, found.StepExecutions[1].Status)

	steps, err := repo.FindStepExecutionsByJobExecutionID(ctx, je.ID)
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestInMemoryJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()

	_, err := repo.FindJobExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrStepExecutionNotFound)

	_, err = repo.FindLatestJobExecution(ctx, "job")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	je := model.NewJobExecution("job", model.NewJobParameters())
	assert.ErrorIs(t, repo.UpdateJobExecution(ctx, je), repository.ErrJobExecutionNotFound)
}

func TestInMemoryJobRepository_FindLatest(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryJobRepository()

	older := model.NewJobExecution("job", model.NewJobParameters())
	other := model.NewJobExecution("other", model.NewJobParameters())
	newer := model.NewJobExecution("job", model.NewJobParameters())
	for _, je := range []*model.JobExecution{older, other, newer} {
		require.NoError(t, repo.SaveJobExecution(ctx, je))
	}

	latest, err := repo.FindLatestJobExecution(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
}
