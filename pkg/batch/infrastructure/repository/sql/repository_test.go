package sql_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	sqlrepo "github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/sql"
)

func newRepository(t *testing.T) *sqlrepo.SQLJobRepository {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Trajbatch.AdapterConfigs["metadata"] = map[string]interface{}{
		"type":     "sqlite",
		"database": filepath.Join(t.TempDir(), "metadata.db"),
	}
	resolver := gormadapter.NewGormDBConnectionResolver(gormadapter.ResolverParams{
		DBProviders: []database.DBProvider{sqlite.NewProvider(cfg)},
		Cfg:         cfg,
	})
	t.Cleanup(func() { _ = resolver.CloseAll() })

	repo := sqlrepo.NewSQLJobRepository(resolver, "metadata")
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLJobRepository_JobAndSteps(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	params := model.NewJobParameters()
	params.Put("runs_file", "runs.csv")
	je := model.NewJobExecution("dailyTrajectoryJob", params)
	je.MarkAsStarted()
	require.NoError(t, repo.SaveJobExecution(ctx, je))
	assert.Error(t, repo.SaveJobExecution(ctx, je), "duplicate primary key")

	base := time.Now()
	first := model.NewStepExecution(je, "out/a")
	first.StartTime = base
	second := model.NewStepExecution(je, "out/b")
	second.StartTime = base.Add(time.Second)
	require.NoError(t, repo.SaveStepExecution(ctx, second))
	require.NoError(t, repo.SaveStepExecution(ctx, first))

	first.MarkAsStarted()
	first.StartTime = base
	first.RenderCount = 6
	first.InvocationCount = 6
	first.InvocationFailureCount = 1
	first.ExecutionContext.Put("run_dir", "/data/out/a")
	first.MarkAsCompleted(model.ExitStatusCompletedWithFailures)
	require.NoError(t, repo.UpdateStepExecution(ctx, first))

	second.MarkAsStarted()
	second.StartTime = base.Add(time.Second)
	second.MarkAsFailed(assert.AnError)
	require.NoError(t, repo.UpdateStepExecution(ctx, second))

	je.MarkAsCompleted()
	require.NoError(t, repo.UpdateJobExecution(ctx, je))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, found.Status)
	assert.NotNil(t, found.EndTime)
	v, ok := found.Parameters.GetString("runs_file")
	assert.True(t, ok)
	assert.Equal(t, "runs.csv", v)

	require.Len(t, found.StepExecutions, 2)
	a := found.StepExecutions[0]
	assert.Equal(t, "out/a", a.StepName)
	assert.Same(t, found, a.JobExecution)
	assert.Equal(t, model.ExitStatusCompletedWithFailures, a.ExitStatus)
	assert.Equal(t, 6, a.RenderCount)
	assert.Equal(t, 1, a.InvocationFailureCount)
	dir, ok := a.ExecutionContext.GetString("run_dir")
	assert.True(t, ok)
	assert.Equal(t, "/data/out/a", dir)

	b := found.StepExecutions[1]
	assert.Equal(t, model.BatchStatusFailed, b.Status)
	assert.Len(t, b.Failures, 1)

	single, err := repo.FindStepExecutionByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "out/b", single.StepName)
}

func TestSQLJobRepository_FindLatest(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	older := model.NewJobExecution("job", model.NewJobParameters())
	older.CreateTime = time.Now().Add(-time.Hour)
	newer := model.NewJobExecution("job", model.NewJobParameters())
	other := model.NewJobExecution("other", model.NewJobParameters())
	for _, je := range []*model.JobExecution{older, newer, other} {
		require.NoError(t, repo.SaveJobExecution(ctx, je))
	}

	latest, err := repo.FindLatestJobExecution(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
}

func TestSQLJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	_, err := repo.FindJobExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrStepExecutionNotFound)

	_, err = repo.FindLatestJobExecution(ctx, "job")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	je := model.NewJobExecution("job", model.NewJobParameters())
	assert.ErrorIs(t, repo.UpdateJobExecution(ctx, je), repository.ErrJobExecutionNotFound)
	se := model.NewStepExecution(je, "out/a")
	assert.ErrorIs(t, repo.UpdateStepExecution(ctx, se), repository.ErrStepExecutionNotFound)
}
