package metrics

import (
	"context"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// TextfileWriter is implemented by recorders that can dump their state to a file.
type TextfileWriter interface {
	WriteTextfile(path string) error
}

// --- Job Execution Listener ---

type MetricsJobListener struct {
	recorder     metrics.MetricRecorder
	textfilePath string
}

// NewMetricsJobListener creates the job listener. When textfilePath is set and the recorder
// is a TextfileWriter, the metrics are written there after the job.
func NewMetricsJobListener(recorder metrics.MetricRecorder, textfilePath string) *MetricsJobListener {
	return &MetricsJobListener{recorder: recorder, textfilePath: textfilePath}
}

func (l *MetricsJobListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {
	l.recorder.RecordJobStart(ctx, jobExecution)
}

func (l *MetricsJobListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	l.recorder.RecordJobEnd(ctx, jobExecution)
	if l.textfilePath == "" {
		return
	}
	w, ok := l.recorder.(TextfileWriter)
	if !ok {
		return
	}
	if err := w.WriteTextfile(l.textfilePath); err != nil {
		logger.Warnf("MetricsJobListener: failed to write metrics to '%s': %v", l.textfilePath, err)
		return
	}
	logger.Infof("MetricsJobListener: metrics written to '%s'.", l.textfilePath)
}

var _ port.JobExecutionListener = (*MetricsJobListener)(nil)

// --- Step Execution Listener ---

type MetricsStepListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsStepListener(recorder metrics.MetricRecorder) port.StepExecutionListener {
	return &MetricsStepListener{recorder: recorder}
}

func (l *MetricsStepListener) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) {
	l.recorder.RecordStepStart(ctx, stepExecution)
}

func (l *MetricsStepListener) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	l.recorder.RecordStepEnd(ctx, stepExecution)
}

var _ port.StepExecutionListener = (*MetricsStepListener)(nil)

// --- Invocation Listener ---

type MetricsInvocationListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsInvocationListener(recorder metrics.MetricRecorder) port.InvocationListener {
	return &MetricsInvocationListener{recorder: recorder}
}

func (l *MetricsInvocationListener) AfterInvocation(ctx context.Context, stepExecution *model.StepExecution, result *model.InvocationResult) {
	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}
	l.recorder.RecordInvocation(ctx, stepExecution.StepName, outcome, result.Duration)
}

var _ port.InvocationListener = (*MetricsInvocationListener)(nil)
