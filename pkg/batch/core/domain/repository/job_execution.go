package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
)

// ErrJobExecutionNotFound is the error returned when a JobExecution is not found.
var ErrJobExecutionNotFound = errors.New("job execution not found")

// JobExecutionNotFoundType is the registry name of ErrJobExecutionNotFound.
const JobExecutionNotFoundType = "ErrJobExecutionNotFound"

func init() {
	exception.RegisterErrorType(JobExecutionNotFoundType, ErrJobExecutionNotFound)
}

type JobExecution interface {
	// SaveJobExecution persists a new JobExecution.
	SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error

	// UpdateJobExecution updates the state of an existing JobExecution.
	UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error

	// FindJobExecutionByID finds a JobExecution by its ID, with its StepExecutions.
	FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error)

	// FindLatestJobExecution returns the most recently created execution of jobName.
	FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error)
}
