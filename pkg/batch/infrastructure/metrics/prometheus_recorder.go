package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job Metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	// Run Metrics
	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec
	rowSkipCounter     *prometheus.CounterVec

	// Invocation Metrics
	controlRenderCounter      *prometheus.CounterVec
	invocationCounter         *prometheus.CounterVec
	invocationDurationSeconds *prometheus.HistogramVec

	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajbatch_job_duration_seconds",
			Help:    "Duration of batch job executions.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"job_name", "status", "exit_status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajbatch_job_status_total",
			Help: "Total number of batch job executions by status.",
		}, []string{"job_name", "status"}),
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajbatch_run_duration_seconds",
			Help:    "Duration of individual runs.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"job_name", "status", "exit_status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajbatch_run_status_total",
			Help: "Total number of runs by final status.",
		}, []string{"job_name", "status", "exit_status"}),
		rowSkipCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajbatch_row_skip_total",
			Help: "Total runs-file rows skipped by reason.",
		}, []string{"reason"}),
		controlRenderCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajbatch_control_render_total",
			Help: "Total CONTROL files written.",
		}, []string{"run"}),
		invocationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajbatch_invocation_total",
			Help: "Total model invocations by outcome.",
		}, []string{"run", "outcome"}),
		invocationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajbatch_invocation_duration_seconds",
			Help:    "Duration of model invocations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajbatch_operation_duration_seconds",
			Help:    "Duration of auxiliary operations such as log archiving.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		r.jobDurationSeconds,
		r.jobStatusCounter,
		r.runDurationSeconds,
		r.runStatusCounter,
		r.rowSkipCounter,
		r.controlRenderCounter,
		r.invocationCounter,
		r.invocationDurationSeconds,
		r.operationDurationSeconds,
	)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format to path,
// for the node exporter textfile collector.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// RecordJobStart records the start of a JobExecution.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Job '%s' started.", execution.JobName)
}

// RecordJobEnd records the end of a JobExecution.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()

	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	r.jobDurationSeconds.WithLabelValues(
		execution.JobName,
		execution.Status.String(),
		execution.ExitStatus.String(),
	).Observe(duration)

	logger.Debugf("Metrics: Job '%s' ended. Duration: %.3fs", execution.JobName, duration)
}

// RecordStepStart is a no-op; runs are counted when they end.
func (r *PrometheusRecorder) RecordStepStart(ctx context.Context, execution *model.StepExecution) {
	logger.Debugf("Metrics: Run '%s' started.", execution.StepName)
}

// RecordStepEnd records the end of a run.
func (r *PrometheusRecorder) RecordStepEnd(ctx context.Context, execution *model.StepExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()
	jobName := ""
	if execution.JobExecution != nil {
		jobName = execution.JobExecution.JobName
	}

	r.runStatusCounter.WithLabelValues(jobName, execution.Status.String(), execution.ExitStatus.String()).Inc()
	r.runDurationSeconds.WithLabelValues(jobName, execution.Status.String(), execution.ExitStatus.String()).Observe(duration)

	logger.Debugf("Metrics: Run '%s' ended. Duration: %.3fs", execution.StepName, duration)
}

// RecordRowSkip records a skipped runs-file row.
func (r *PrometheusRecorder) RecordRowSkip(ctx context.Context, reason string) {
	r.rowSkipCounter.WithLabelValues(reason).Inc()
}

// RecordControlRender records a CONTROL file write.
func (r *PrometheusRecorder) RecordControlRender(ctx context.Context, stepName string) {
	r.controlRenderCounter.WithLabelValues(stepName).Inc()
}

// RecordInvocation records one model invocation.
func (r *PrometheusRecorder) RecordInvocation(ctx context.Context, stepName string, outcome string, duration time.Duration) {
	r.invocationCounter.WithLabelValues(stepName, outcome).Inc()
	r.invocationDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDuration records the duration of an auxiliary operation. Only the "operation" tag is used as label.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDurationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
