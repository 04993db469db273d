package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

const instrumentationName = "github.com/tigerroll/trajbatch"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from provider.
func NewOpenTelemetryTracer(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: provider.Tracer(instrumentationName)}
}

// StartJobSpan starts a new span for a JobExecution.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "job "+execution.JobName,
		trace.WithAttributes(
			attribute.String("job.name", execution.JobName),
			attribute.String("job.execution_id", execution.ID),
		))
	logger.Debugf("Tracer: started job span for '%s'", execution.JobName)
	return ctx, func() {
		span.SetAttributes(attribute.String("job.status", execution.Status.String()))
		if execution.Status == model.BatchStatusFailed {
			span.SetStatus(codes.Error, fmt.Sprintf("%d failure(s)", len(execution.Failures)))
		}
		span.End()
	}
}

// StartStepSpan starts a new span for a run.
func (t *OpenTelemetryTracer) StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "run "+execution.StepName,
		trace.WithAttributes(
			attribute.String("run.name", execution.StepName),
			attribute.String("run.execution_id", execution.ID),
		))
	return ctx, func() {
		span.SetAttributes(
			attribute.String("run.status", execution.Status.String()),
			attribute.String("run.exit_status", execution.ExitStatus.String()),
			attribute.Int("run.invocations", execution.InvocationCount),
			attribute.Int("run.invocation_failures", execution.InvocationFailureCount),
		)
		if execution.Status == model.BatchStatusFailed {
			span.SetStatus(codes.Error, "run failed")
		}
		span.End()
	}
}

// StartInvocationSpan starts a new span for one model invocation.
func (t *OpenTelemetryTracer) StartInvocationSpan(ctx context.Context, stepName, date, hour string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "invoke",
		trace.WithAttributes(
			attribute.String("run.name", stepName),
			attribute.String("invocation.date", date),
			attribute.String("invocation.hour", hour),
		))
	return ctx, func() { span.End() }
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
