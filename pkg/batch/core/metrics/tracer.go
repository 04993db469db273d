package metrics

import (
	"context"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of jobs, runs, and invocations.
type Tracer interface {
	// StartJobSpan starts a Span for a JobExecution.
	//
	// Returns: A context with the new Span set, and a function to end the Span.
	StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())

	// StartStepSpan starts a Span for a StepExecution.
	//
	// ctx: The parent context (typically a context with a JobSpan).
	// execution: The StepExecution to be traced.
	StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func())

	// StartInvocationSpan starts a Span for one model invocation.
	StartInvocationSpan(ctx context.Context, stepName, date, hour string) (context.Context, func())

	// RecordError records an error in the current Span.
	//
	// module: The component where the error occurred (e.g., "reader", "tasklet").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current Span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
