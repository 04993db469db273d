package logging

import (
	"context"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// --- Job Execution Listener ---

type LoggingJobListener struct{}

func NewLoggingJobListener() port.JobExecutionListener {
	return &LoggingJobListener{}
}

func (l *LoggingJobListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: BeforeJob - JobName: %s, ID: %s, Params: %+v", jobExecution.JobName, jobExecution.ID, jobExecution.Parameters.Params)
}

func (l *LoggingJobListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	logger.Infof("JobExecutionListener: AfterJob - JobName: %s, Status: %s, ExitStatus: %s, Runs: %d",
		jobExecution.JobName, jobExecution.Status, jobExecution.ExitStatus, len(jobExecution.StepExecutions))
	for _, f := range jobExecution.Failures {
		logger.Warnf("JobExecutionListener: failure - %s", f)
	}
}

var _ port.JobExecutionListener = (*LoggingJobListener)(nil)

// --- Step Execution Listener ---

type LoggingStepListener struct{}

func NewLoggingStepListener() port.StepExecutionListener {
	return &LoggingStepListener{}
}

func (l *LoggingStepListener) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) {
	logger.Infof("StepExecutionListener: BeforeStep - Run: %s, ID: %s", stepExecution.StepName, stepExecution.ID)
}

func (l *LoggingStepListener) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	logger.Infof("StepExecutionListener: AfterStep - Run: %s, Status: %s, ExitStatus: %s, Renders: %d, Invocations: %d, Failed: %d",
		stepExecution.StepName, stepExecution.Status, stepExecution.ExitStatus,
		stepExecution.RenderCount, stepExecution.InvocationCount, stepExecution.InvocationFailureCount)
}

var _ port.StepExecutionListener = (*LoggingStepListener)(nil)

// --- Invocation Listener ---

type LoggingInvocationListener struct{}

func NewLoggingInvocationListener() port.InvocationListener {
	return &LoggingInvocationListener{}
}

func (l *LoggingInvocationListener) AfterInvocation(ctx context.Context, stepExecution *model.StepExecution, result *model.InvocationResult) {
	date := result.Date.Format("2006-01-02")
	if result.Succeeded() {
		logger.Debugf("InvocationListener: Run: %s, Date: %s, Hour: %s finished in %s", stepExecution.StepName, date, result.Hour, result.Duration)
		return
	}
	logger.Warnf("InvocationListener: Run: %s, Date: %s, Hour: %s failed (exit code %d): %v",
		stepExecution.StepName, date, result.Hour, result.ExitCode, result.Err)
}

var _ port.InvocationListener = (*LoggingInvocationListener)(nil)
