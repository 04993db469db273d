package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to batch execution.
// It keeps the job and run code independent of the metrics backend.
type MetricRecorder interface {
	// RecordJobStart records the start of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the started JobExecution.
	RecordJobStart(ctx context.Context, execution *model.JobExecution)

	// RecordJobEnd records the end of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the ended JobExecution.
	RecordJobEnd(ctx context.Context, execution *model.JobExecution)

	// RecordStepStart records the start of a StepExecution (one run).
	RecordStepStart(ctx context.Context, execution *model.StepExecution)

	// RecordStepEnd records the end of a StepExecution (one run).
	RecordStepEnd(ctx context.Context, execution *model.StepExecution)

	// RecordRowSkip records a runs-file row that was skipped.
	//
	// reason: A string indicating the reason for skipping (e.g., error type).
	RecordRowSkip(ctx context.Context, reason string)

	// RecordControlRender records a CONTROL file written for a run.
	RecordControlRender(ctx context.Context, stepName string)

	// RecordInvocation records one model invocation and its outcome.
	//
	// outcome: "success" or "failure".
	// duration: Wall-clock time of the invocation.
	RecordInvocation(ctx context.Context, stepName string, outcome string, duration time.Duration)

	// RecordDuration records the execution time of a specific operation.
	//
	// ctx: The context for the operation.
	// name: The name of the duration to record (e.g., "archive_upload").
	// duration: The length of the duration to record.
	// tags: A map of additional tags or attributes to associate with the duration.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
