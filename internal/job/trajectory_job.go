// Package job drives the trajectory batch: one step per row of the runs file.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	runmodel "github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/internal/step/tasklet"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	taskletStep "github.com/tigerroll/trajbatch/pkg/batch/engine/step/tasklet"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// RowSkipReasonMalformed labels skipped rows in metrics.
const RowSkipReasonMalformed = "malformed"

// TrajectoryJob reads run descriptors one at a time and executes each run as a tasklet step,
// strictly in order. A failed run does not stop the batch unless fail_fast is set.
type TrajectoryJob struct {
	name           string
	failFast       bool
	reader         port.ItemReader[*runmodel.RunDescriptor]
	tasklets       *tasklet.Factory
	jobRepository  repository.JobRepository
	stepListeners  []port.StepExecutionListener
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// NewTrajectoryJob creates the job.
func NewTrajectoryJob(
	cfg *config.Config,
	reader port.ItemReader[*runmodel.RunDescriptor],
	tasklets *tasklet.Factory,
	jobRepository repository.JobRepository,
	stepListeners []port.StepExecutionListener,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *TrajectoryJob {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &TrajectoryJob{
		name:           cfg.Trajbatch.Batch.JobName,
		failFast:       cfg.Trajbatch.Batch.FailFast,
		reader:         reader,
		tasklets:       tasklets,
		jobRepository:  jobRepository,
		stepListeners:  stepListeners,
		metricRecorder: metricRecorder,
		tracer:         tracer,
	}
}

// JobName returns the job name.
func (j *TrajectoryJob) JobName() string {
	return j.name
}

// Run executes every run of the runs file. Failures of individual runs, including malformed
// rows, are collected and returned together. A cancelled ctx stops the job before the next run.
func (j *TrajectoryJob) Run(ctx context.Context, jobExecution *model.JobExecution) error {
	if err := j.reader.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := j.reader.Close(ctx); err != nil {
			logger.Warnf("Job '%s': failed to close runs file: %v", j.name, err)
		}
	}()

	var result *multierror.Error
	skipped := 0
	defer func() {
		jobExecution.ExecutionContext.Put(model.ContextKeyRowsSkipped, skipped)
	}()

	for {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Job '%s' interrupted: %v", j.name, err)
			return multierror.Append(result, err).ErrorOrNil()
		}

		run, err := j.reader.Read(ctx)
		if errors.Is(err, port.ErrNoMoreItems) {
			break
		}
		if err != nil {
			if exception.IsFatal(err) {
				return multierror.Append(result, err).ErrorOrNil()
			}
			skipped++
			j.metricRecorder.RecordRowSkip(ctx, RowSkipReasonMalformed)
			logger.Warnf("Job '%s': skipping row: %v", j.name, err)
			result = multierror.Append(result, err)
			if j.failFast {
				break
			}
			continue
		}

		if err := j.runOne(ctx, jobExecution, run); err != nil {
			result = multierror.Append(result, err)
			if ctx.Err() != nil {
				return result.ErrorOrNil()
			}
			if j.failFast {
				logger.Warnf("Job '%s': stopping after failed run '%s' (fail_fast).", j.name, run.OutputFolder)
				break
			}
		}
	}
	return result.ErrorOrNil()
}

// runOne executes run as a step of jobExecution.
func (j *TrajectoryJob) runOne(ctx context.Context, jobExecution *model.JobExecution, run *runmodel.RunDescriptor) error {
	stepName := run.OutputFolder
	stepExecution := model.NewStepExecution(jobExecution, stepName)
	jobExecution.AddStepExecution(stepExecution)
	if err := j.jobRepository.SaveStepExecution(ctx, stepExecution); err != nil {
		return exception.NewBatchError(j.name, fmt.Sprintf("failed to save StepExecution for run '%s'", stepName), err, false, false)
	}

	t, err := j.tasklets.New(run)
	if err != nil {
		stepExecution.MarkAsFailed(err)
		if updateErr := j.jobRepository.UpdateStepExecution(context.WithoutCancel(ctx), stepExecution); updateErr != nil {
			logger.Errorf("Job '%s': failed to update StepExecution of run '%s': %v", j.name, stepName, updateErr)
		}
		return fmt.Errorf("run '%s' (row %d): %w", stepName, run.Row, err)
	}

	step := taskletStep.NewTaskletStep(stepName, t, j.jobRepository, j.stepListeners, j.metricRecorder, j.tracer)
	if err := step.Execute(ctx, jobExecution, stepExecution); err != nil {
		return fmt.Errorf("run '%s' (row %d): %w", stepName, run.Row, err)
	}
	return nil
}

var _ port.Job = (*TrajectoryJob)(nil)
