package usecase

import (
	"context"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// JobLauncher runs a Job with JobParameters.
type JobLauncher interface {
	// Launch runs job to completion and returns its JobExecution in a finished state.
	// The error reports a failure of the launch process itself (for example, the
	// execution could not be persisted), not a failure of the job.
	Launch(ctx context.Context, job port.Job, params model.JobParameters) (*model.JobExecution, error)
}

// JobOperator controls running job executions.
type JobOperator interface {
	// Stop cancels the running JobExecution. The job stops before its next model invocation.
	Stop(ctx context.Context, executionID string) error

	// StopAll cancels every running JobExecution.
	StopAll(ctx context.Context)
}

// JobExplorer queries the execution history.
type JobExplorer interface {
	// GetJobExecution retrieves a JobExecution, with its runs, by ID.
	GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error)

	// GetLastJobExecution retrieves the most recent JobExecution of jobName.
	GetLastJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error)
}
