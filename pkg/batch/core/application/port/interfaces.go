// Package port defines the core interfaces (ports) for the batch application.
// These interfaces abstract the application's capabilities and dependencies,
// allowing for flexible implementation and testing.
package port

import (
	"context"
	"errors"
	"time"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
)

// ErrNoMoreItems is returned by ItemReader.Read when the input is exhausted.
var ErrNoMoreItems = errors.New("no more items to read")

// Job is the interface for an executable batch job.
type Job interface {
	// Run executes the job.
	//
	// Parameters:
	//   ctx: The context for the operation. Cancelling it stops the job before the next unit of work.
	//   jobExecution: The current JobExecution instance.
	//
	// Returns:
	//   error: An error if the job execution fails.
	Run(ctx context.Context, jobExecution *model.JobExecution) error
	// JobName returns the logical name of the job.
	JobName() string
}

// Step is one unit of a job. For trajbatch a step processes one run.
type Step interface {
	// Execute runs the step and updates stepExecution with its outcome.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   jobExecution: The JobExecution the step belongs to.
	//   stepExecution: The StepExecution to update.
	//
	// Returns:
	//   error: An error if the step failed.
	Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) error
	// StepName returns the name of the step.
	StepName() string
	// SetMetricRecorder sets the MetricRecorder for the step.
	SetMetricRecorder(recorder metrics.MetricRecorder)
	// SetTracer sets the Tracer for the step.
	SetTracer(tracer metrics.Tracer)
}

// ItemReader reads items one at a time.
type ItemReader[O any] interface {
	// Open prepares the reader.
	Open(ctx context.Context) error
	// Read returns the next item. It returns ErrNoMoreItems when the input is exhausted.
	// A skippable error for one item does not end the sequence.
	Read(ctx context.Context) (O, error)
	// Close releases the reader's resources.
	Close(ctx context.Context) error
}

// Tasklet is a single task executed by a tasklet step.
type Tasklet interface {
	// Execute performs the task.
	Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error)
	// Close releases the tasklet's resources.
	Close(ctx context.Context) error
}

// StepExecutionListener is notified before and after each step.
type StepExecutionListener interface {
	// BeforeStep is called before the step starts.
	BeforeStep(ctx context.Context, stepExecution *model.StepExecution)
	// AfterStep is called after the step ends, whatever its status.
	AfterStep(ctx context.Context, stepExecution *model.StepExecution)
}

// JobExecutionListener is notified before and after the job.
type JobExecutionListener interface {
	// BeforeJob is called before the job starts.
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	// AfterJob is called after the job ends, whatever its status.
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

// InvocationListener is notified after each model invocation.
type InvocationListener interface {
	// AfterInvocation is called with the outcome of one invocation.
	AfterInvocation(ctx context.Context, stepExecution *model.StepExecution, result *model.InvocationResult)
}

// CommandRequest describes one external program invocation.
type CommandRequest struct {
	// Path is the executable.
	Path string
	// Args are passed to the executable. The trajectory model takes none.
	Args []string
	// Dir is the working directory of the process.
	Dir string
	// Timeout bounds the process lifetime; 0 means no bound beyond ctx.
	Timeout time.Duration
}

// CommandOutput is what an invocation produced.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
	// Err is set when the process could not be started, was killed, or exited non-zero.
	Err error
}

// CommandExecutor runs external programs synchronously.
type CommandExecutor interface {
	// Execute runs req and waits for it. Failures are reported in CommandOutput.Err,
	// never by panicking.
	Execute(ctx context.Context, req CommandRequest) CommandOutput
}

type contextKey string

const stepExecutionKey contextKey = "stepExecution"

// GetContextWithStepExecution returns a context carrying se.
func GetContextWithStepExecution(ctx context.Context, se *model.StepExecution) context.Context {
	return context.WithValue(ctx, stepExecutionKey, se)
}

// GetStepExecutionFromContext returns the StepExecution stored in ctx, or nil.
func GetStepExecutionFromContext(ctx context.Context) *model.StepExecution {
	if se, ok := ctx.Value(stepExecutionKey).(*model.StepExecution); ok {
		return se
	}
	return nil
}
