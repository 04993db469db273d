package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/trajbatch/pkg/batch/core/application/usecase"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/inmemory"
)

type funcJob struct {
	run func(ctx context.Context, je *model.JobExecution) error
}

func (j *funcJob) Run(ctx context.Context, je *model.JobExecution) error { return j.run(ctx, je) }
func (j *funcJob) JobName() string                                       { return "testJob" }

type countingJobListener struct {
	before, after int
	lastStatus    model.JobStatus
}

func (l *countingJobListener) BeforeJob(ctx context.Context, je *model.JobExecution) { l.before++ }
func (l *countingJobListener) AfterJob(ctx context.Context, je *model.JobExecution) {
	l.after++
	l.lastStatus = je.Status
}

func TestSimpleJobLauncher_Completed(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	listener := &countingJobListener{}
	launcher := usecase.NewSimpleJobLauncher(repo, []port.JobExecutionListener{listener}, nil)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		return nil
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, je.Status)
	assert.Equal(t, model.ExitStatusCompleted, je.ExitStatus)
	assert.Equal(t, 1, listener.before)
	assert.Equal(t, 1, listener.after)
	assert.Equal(t, model.BatchStatusCompleted, listener.lastStatus)
	_, ok := je.ExecutionContext.GetInt(model.ContextKeyElapsedSeconds)
	assert.True(t, ok)
	assert.Empty(t, launcher.ActiveExecutionIDs())

	stored, err := usecase.NewSimpleJobExplorer(repo).GetJobExecution(context.Background(), je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, stored.Status)
}

func TestSimpleJobLauncher_CompletedWithFailures(t *testing.T) {
	launcher := usecase.NewSimpleJobLauncher(inmemory.NewInMemoryJobRepository(), nil, nil)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		se := model.NewStepExecution(je, "site_a")
		se.MarkAsStarted()
		se.InvocationFailureCount = 1
		se.MarkAsCompleted(model.ExitStatusCompletedWithFailures)
		je.AddStepExecution(se)
		return nil
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, je.Status)
	assert.Equal(t, model.ExitStatusCompletedWithFailures, je.ExitStatus)
}

func TestSimpleJobLauncher_FailedRecordsEveryError(t *testing.T) {
	launcher := usecase.NewSimpleJobLauncher(inmemory.NewInMemoryJobRepository(), nil, nil)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		var result *multierror.Error
		result = multierror.Append(result, errors.New("run site_a failed"))
		result = multierror.Append(result, errors.New("run site_b failed"))
		return result.ErrorOrNil()
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, je.Status)
	assert.Equal(t, model.ExitStatusFailed, je.ExitStatus)
	assert.Equal(t, []string{"run site_a failed", "run site_b failed"}, []string(je.Failures))
}

func TestSimpleJobLauncher_Panic(t *testing.T) {
	launcher := usecase.NewSimpleJobLauncher(inmemory.NewInMemoryJobRepository(), nil, nil)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		panic("boom")
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, je.Status)
	require.NotEmpty(t, je.Failures)
	assert.Contains(t, je.Failures[0], "boom")
}

func TestDefaultJobOperator_StopRunningJob(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	launcher := usecase.NewSimpleJobLauncher(repo, nil, nil)
	operator := usecase.NewDefaultJobOperator(repo, launcher)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		if err := operator.Stop(ctx, je.ID); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusStopped, je.Status)
	assert.Equal(t, model.ExitStatusStopped, je.ExitStatus)

	assert.Error(t, operator.Stop(context.Background(), je.ID))
	assert.Error(t, operator.Stop(context.Background(), "unknown"))
}

func TestDefaultJobOperator_StopAll(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	launcher := usecase.NewSimpleJobLauncher(repo, nil, nil)
	operator := usecase.NewDefaultJobOperator(repo, launcher)

	je, err := launcher.Launch(context.Background(), &funcJob{run: func(ctx context.Context, je *model.JobExecution) error {
		operator.StopAll(ctx)
		<-ctx.Done()
		return ctx.Err()
	}}, model.NewJobParameters())

	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusStopped, je.Status)
}

func TestSimpleJobExplorer_GetLastJobExecution(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	launcher := usecase.NewSimpleJobLauncher(repo, nil, nil)
	job := &funcJob{run: func(ctx context.Context, je *model.JobExecution) error { return nil }}

	_, err := launcher.Launch(context.Background(), job, model.NewJobParameters())
	require.NoError(t, err)
	second, err := launcher.Launch(context.Background(), job, model.NewJobParameters())
	require.NoError(t, err)

	explorer := usecase.NewSimpleJobExplorer(repo)
	last, err := explorer.GetLastJobExecution(context.Background(), "testJob")
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)

	_, err = explorer.GetLastJobExecution(context.Background(), "otherJob")
	assert.Error(t, err)
}
