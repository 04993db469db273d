package usecase

import (
	"context"
	"fmt"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	job "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// SimpleJobExplorer is a simple implementation of the JobExplorer interface.
// It queries batch metadata using a JobRepository.
type SimpleJobExplorer struct {
	jobRepository job.JobRepository
}

// Verify that SimpleJobExplorer implements the JobExplorer interface.
var _ JobExplorer = (*SimpleJobExplorer)(nil)

// NewSimpleJobExplorer creates a new instance of SimpleJobExplorer.
func NewSimpleJobExplorer(jobRepository job.JobRepository) *SimpleJobExplorer {
	return &SimpleJobExplorer{
		jobRepository: jobRepository,
	}
}

// GetJobExecution retrieves a JobExecution by its ID.
func (e *SimpleJobExplorer) GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error) {
	logger.Debugf("JobExplorer: GetJobExecution called. Execution ID: %s", executionID)
	jobExecution, err := e.jobRepository.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve JobExecution (ID: %s)", executionID), err, false, false)
	}
	return jobExecution, nil
}

// GetLastJobExecution retrieves the most recent JobExecution of jobName.
func (e *SimpleJobExplorer) GetLastJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	logger.Debugf("JobExplorer: GetLastJobExecution called. Job Name: %s", jobName)
	jobExecution, err := e.jobRepository.FindLatestJobExecution(ctx, jobName)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve the latest JobExecution of '%s'", jobName), err, false, false)
	}
	logger.Debugf("Retrieved latest JobExecution (ID: %s) of '%s'.", jobExecution.ID, jobName)
	return jobExecution, nil
}
