package usecase

import (
	"context"
	"fmt"

	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// DefaultJobOperator is the default implementation of the JobOperator interface.
// It stops executions through the cancel functions registered with the launcher.
type DefaultJobOperator struct {
	jobRepository repository.JobRepository
	jobLauncher   *SimpleJobLauncher
}

// Verify that DefaultJobOperator implements the JobOperator interface.
var _ JobOperator = (*DefaultJobOperator)(nil)

// NewDefaultJobOperator creates a new instance of DefaultJobOperator.
func NewDefaultJobOperator(jobRepository repository.JobRepository, jobLauncher *SimpleJobLauncher) *DefaultJobOperator {
	return &DefaultJobOperator{
		jobRepository: jobRepository,
		jobLauncher:   jobLauncher,
	}
}

// Stop cancels the specified JobExecution. The launcher records the STOPPED status
// once the job returns.
func (o *DefaultJobOperator) Stop(ctx context.Context, executionID string) error {
	logger.Infof("JobOperator: Stop method called. Execution ID: %s", executionID)

	jobExecution, err := o.jobRepository.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return exception.NewBatchError("job_operator", fmt.Sprintf("Stop processing error: Failed to load JobExecution (ID: %s)", executionID), err, false, false)
	}
	if jobExecution.Status.IsFinished() {
		return exception.NewBatchErrorf("job_operator", "Stop processing error: JobExecution (ID: %s) is already in a finished state (%s)", executionID, jobExecution.Status)
	}

	cancelFunc, ok := o.jobLauncher.GetCancelFunc(executionID)
	if !ok {
		return exception.NewBatchErrorf("job_operator", "Stop processing error: JobExecution (ID: %s) is not running in this process", executionID)
	}
	cancelFunc()

	logger.Infof("Sent stop signal for JobExecution (ID: %s).", executionID)
	return nil
}

// StopAll cancels every job execution running in this process.
func (o *DefaultJobOperator) StopAll(ctx context.Context) {
	for _, id := range o.jobLauncher.ActiveExecutionIDs() {
		if cancelFunc, ok := o.jobLauncher.GetCancelFunc(id); ok {
			logger.Infof("Sent stop signal for JobExecution (ID: %s).", id)
			cancelFunc()
		}
	}
}
