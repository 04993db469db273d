package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// NewMetricRecorder returns a PrometheusRecorder when metrics are enabled, otherwise a no-op recorder.
func NewMetricRecorder(cfg *config.Config) metrics.MetricRecorder {
	if !cfg.Trajbatch.Metrics.Enabled {
		logger.Debugf("Metrics disabled; using NoOpMetricRecorder.")
		return metrics.NewNoOpMetricRecorder()
	}
	return NewPrometheusRecorder()
}

// NewTracer builds an OpenTelemetry tracer. With an OTLP endpoint configured, spans are
// exported over OTLP/HTTP by an SDK tracer provider that is flushed on application stop.
// Without one, the global provider (no-op unless set elsewhere) is used.
func NewTracer(lc fx.Lifecycle, cfg *config.Config) (metrics.Tracer, error) {
	tc := cfg.Trajbatch.Tracing
	if tc.OTLPEndpoint == "" {
		return NewOpenTelemetryTracer(otel.GetTracerProvider()), nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tc.OTLPEndpoint)}
	if tc.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, exception.NewBatchError("tracing", "failed to create OTLP trace exporter", err, false, false)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", tc.ServiceName))),
	)
	otel.SetTracerProvider(tp)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debugf("Flushing trace provider.")
			return tp.Shutdown(ctx)
		},
	})
	logger.Infof("Exporting traces to %s.", tc.OTLPEndpoint)
	return NewOpenTelemetryTracer(tp), nil
}

// Module provides the MetricRecorder and Tracer selected by configuration.
var Module = fx.Options(
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
