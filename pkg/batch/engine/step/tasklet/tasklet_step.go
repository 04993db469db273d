package tasklet

import (
	"context"
	"errors"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// TaskletStep is an implementation of port.Step that runs a single Tasklet.
type TaskletStep struct {
	name                   string
	tasklet                port.Tasklet
	jobRepository          repository.JobRepository
	stepExecutionListeners []port.StepExecutionListener
	metricRecorder         metrics.MetricRecorder
	tracer                 metrics.Tracer
}

// NewTaskletStep creates a new TaskletStep instance.
func NewTaskletStep(
	name string,
	tasklet port.Tasklet,
	jobRepository repository.JobRepository,
	stepExecutionListeners []port.StepExecutionListener,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *TaskletStep {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &TaskletStep{
		name:                   name,
		tasklet:                tasklet,
		jobRepository:          jobRepository,
		stepExecutionListeners: stepExecutionListeners,
		metricRecorder:         metricRecorder,
		tracer:                 tracer,
	}
}

// SetMetricRecorder implements port.Step.
func (s *TaskletStep) SetMetricRecorder(recorder metrics.MetricRecorder) {
	s.metricRecorder = recorder
}

// SetTracer implements port.Step.
func (s *TaskletStep) SetTracer(tracer metrics.Tracer) {
	s.tracer = tracer
}

// StepName returns the step name.
func (s *TaskletStep) StepName() string {
	return s.name
}

func (s *TaskletStep) notifyBeforeStep(ctx context.Context, stepExecution *model.StepExecution) {
	for _, l := range s.stepExecutionListeners {
		l.BeforeStep(ctx, stepExecution)
	}
}

func (s *TaskletStep) notifyAfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	for _, l := range s.stepExecutionListeners {
		l.AfterStep(ctx, stepExecution)
	}
}

// Execute runs the Tasklet and records the outcome on stepExecution.
// A cancelled context marks the step STOPPED rather than FAILED.
func (s *TaskletStep) Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) (err error) {
	logger.Debugf("TaskletStep '%s' executing.", s.name)

	ctx, endSpan := s.tracer.StartStepSpan(ctx, stepExecution)
	defer endSpan()
	ctx = port.GetContextWithStepExecution(ctx, stepExecution)

	stepExecution.MarkAsStarted()
	if err := s.jobRepository.UpdateStepExecution(ctx, stepExecution); err != nil {
		return exception.NewBatchError(s.name, "Failed to update StepExecution status to STARTED", err, false, false)
	}

	s.notifyBeforeStep(ctx, stepExecution)

	exitStatus, err := s.tasklet.Execute(ctx, stepExecution)

	if closeErr := s.tasklet.Close(ctx); closeErr != nil {
		logger.Errorf("TaskletStep '%s': Failed to close Tasklet: %v", s.name, closeErr)
		if err == nil {
			err = closeErr
		}
	}

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		stepExecution.MarkAsStopped()
		stepExecution.AddFailureException(err)
	case err != nil:
		s.tracer.RecordError(ctx, s.name, err)
		stepExecution.MarkAsFailed(err)
	default:
		stepExecution.MarkAsCompleted(exitStatus)
	}

	s.notifyAfterStep(ctx, stepExecution)

	// The final state is persisted even when ctx was cancelled.
	if updateErr := s.jobRepository.UpdateStepExecution(context.WithoutCancel(ctx), stepExecution); updateErr != nil {
		logger.Errorf("TaskletStep '%s': Failed to update final StepExecution state: %v", s.name, updateErr)
		if err == nil {
			err = updateErr
		}
	}

	logger.Debugf("TaskletStep '%s' finished. ExitStatus: %s", s.name, stepExecution.ExitStatus)
	return err
}

// Verify that TaskletStep implements the port.Step interface.
var _ port.Step = (*TaskletStep)(nil)
