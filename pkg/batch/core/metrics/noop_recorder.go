package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordJobStart does nothing.
func (r *NoOpMetricRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {}

// RecordJobEnd does nothing.
func (r *NoOpMetricRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {}

// RecordStepStart does nothing.
func (r *NoOpMetricRecorder) RecordStepStart(ctx context.Context, execution *model.StepExecution) {}

// RecordStepEnd does nothing.
func (r *NoOpMetricRecorder) RecordStepEnd(ctx context.Context, execution *model.StepExecution) {}

// RecordRowSkip does nothing.
func (r *NoOpMetricRecorder) RecordRowSkip(ctx context.Context, reason string) {}

// RecordControlRender does nothing.
func (r *NoOpMetricRecorder) RecordControlRender(ctx context.Context, stepName string) {}

// RecordInvocation does nothing.
func (r *NoOpMetricRecorder) RecordInvocation(ctx context.Context, stepName string, outcome string, duration time.Duration) {
}

// RecordDuration does nothing.
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartJobSpan returns ctx unchanged.
func (t *NoOpTracer) StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartStepSpan returns ctx unchanged.
func (t *NoOpTracer) StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartInvocationSpan returns ctx unchanged.
func (t *NoOpTracer) StartInvocationSpan(ctx context.Context, stepName, date, hour string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent does nothing.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
