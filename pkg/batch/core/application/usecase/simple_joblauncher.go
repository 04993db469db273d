package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// SimpleJobLauncher implements JobLauncher for synchronous local execution.
type SimpleJobLauncher struct {
	jobRepository repository.JobRepository
	jobListeners  []port.JobExecutionListener
	tracer        metrics.Tracer
	// activeJobCancellations holds the cancel functions for running jobs.
	activeJobCancellations map[string]context.CancelFunc
	mu                     sync.Mutex
}

// NewSimpleJobLauncher creates a new SimpleJobLauncher.
func NewSimpleJobLauncher(
	repo repository.JobRepository,
	jobListeners []port.JobExecutionListener,
	tracer metrics.Tracer,
) *SimpleJobLauncher {
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &SimpleJobLauncher{
		jobRepository:          repo,
		jobListeners:           jobListeners,
		tracer:                 tracer,
		activeJobCancellations: make(map[string]context.CancelFunc),
	}
}

// RegisterCancelFunc registers the cancel function for a running job execution.
func (l *SimpleJobLauncher) RegisterCancelFunc(executionID string, cancelFunc context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeJobCancellations[executionID] = cancelFunc
	logger.Debugf("Registered CancelFunc for JobExecution (ID: %s).", executionID)
}

// UnregisterCancelFunc unregisters the cancel function for a running job execution.
func (l *SimpleJobLauncher) UnregisterCancelFunc(executionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.activeJobCancellations[executionID]; ok {
		delete(l.activeJobCancellations, executionID)
		logger.Debugf("Unregistered CancelFunc for JobExecution (ID: %s).", executionID)
	}
}

// GetCancelFunc retrieves the cancel function for the specified JobExecution ID.
func (l *SimpleJobLauncher) GetCancelFunc(executionID string) (context.CancelFunc, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cancelFunc, ok := l.activeJobCancellations[executionID]
	return cancelFunc, ok
}

// ActiveExecutionIDs returns the IDs of the running job executions.
func (l *SimpleJobLauncher) ActiveExecutionIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.activeJobCancellations))
	for id := range l.activeJobCancellations {
		ids = append(ids, id)
	}
	return ids
}

// Launch runs job and records its outcome. A cancelled ctx ends the job STOPPED; a job error
// ends it FAILED with every aggregated error recorded; otherwise it is COMPLETED, with exit
// status COMPLETED_WITH_FAILURES when a run had failed invocations.
func (l *SimpleJobLauncher) Launch(ctx context.Context, job port.Job, params model.JobParameters) (*model.JobExecution, error) {
	const op = "SimpleJobLauncher.Launch"
	jobName := job.JobName()
	jobExecution := model.NewJobExecution(jobName, params)
	logger.Infof("Launching Job '%s' (Execution ID: %s).", jobName, jobExecution.ID)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobExecution.CancelFunc = cancel
	l.RegisterCancelFunc(jobExecution.ID, cancel)
	defer l.UnregisterCancelFunc(jobExecution.ID)

	if err := l.jobRepository.SaveJobExecution(jobCtx, jobExecution); err != nil {
		logger.Errorf("Failed to persist JobExecution (ID: %s) initially: %v", jobExecution.ID, err)
		return jobExecution, exception.NewBatchError(op, "failed to save JobExecution initially", err, false, false)
	}

	jobCtx, endSpan := l.tracer.StartJobSpan(jobCtx, jobExecution)
	defer endSpan()

	jobExecution.MarkAsStarted()
	if err := l.jobRepository.UpdateJobExecution(jobCtx, jobExecution); err != nil {
		logger.Warnf("Failed to update JobExecution (ID: %s) status to STARTED: %v", jobExecution.ID, err)
	}
	for _, listener := range l.jobListeners {
		listener.BeforeJob(jobCtx, jobExecution)
	}

	runErr := runJob(jobCtx, job, jobExecution)

	switch {
	case runErr != nil && jobCtx.Err() != nil:
		jobExecution.MarkAsStopped()
		recordFailures(jobExecution, runErr)
		logger.Warnf("Job '%s' stopped: %v", jobName, runErr)
	case runErr != nil:
		jobExecution.MarkAsFailed(nil)
		recordFailures(jobExecution, runErr)
		l.tracer.RecordError(jobCtx, op, runErr)
		logger.Errorf("Job '%s' failed: %v", jobName, runErr)
	default:
		jobExecution.MarkAsCompleted()
		if hasFailedInvocations(jobExecution) {
			jobExecution.ExitStatus = model.ExitStatusCompletedWithFailures
		}
	}

	elapsed := jobExecution.Elapsed()
	jobExecution.ExecutionContext.Put(model.ContextKeyElapsedSeconds, int(elapsed.Seconds()))
	logger.Infof("Job '%s' finished with status %s (%s) in %d seconds or %d minutes.",
		jobName, jobExecution.Status, jobExecution.ExitStatus, int(elapsed.Seconds()), int(elapsed.Minutes()))

	// Listeners and the final update run even when ctx was cancelled.
	finalCtx := context.WithoutCancel(jobCtx)
	for _, listener := range l.jobListeners {
		listener.AfterJob(finalCtx, jobExecution)
	}
	if err := l.jobRepository.UpdateJobExecution(finalCtx, jobExecution); err != nil {
		logger.Errorf("Failed to update final state of JobExecution (ID: %s): %v", jobExecution.ID, err)
		return jobExecution, exception.NewBatchError(op, "failed to save final JobExecution state", err, false, false)
	}
	return jobExecution, nil
}

// runJob runs job, converting a panic into an error.
func runJob(ctx context.Context, job port.Job, jobExecution *model.JobExecution) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewBatchError("job_launcher", fmt.Sprintf("job '%s' panicked: %v", job.JobName(), r), nil, false, false)
		}
	}()
	return job.Run(ctx, jobExecution)
}

// recordFailures adds each error aggregated in err to the job's failures.
func recordFailures(jobExecution *model.JobExecution, err error) {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			jobExecution.AddFailureException(e)
		}
		return
	}
	jobExecution.AddFailureException(err)
}

func hasFailedInvocations(jobExecution *model.JobExecution) bool {
	for _, se := range jobExecution.StepExecutions {
		if se.ExitStatus == model.ExitStatusCompletedWithFailures || se.InvocationFailureCount > 0 {
			return true
		}
	}
	return false
}

var _ JobLauncher = (*SimpleJobLauncher)(nil)
