package metrics

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
)

func newJobListener(recorder metrics.MetricRecorder, cfg *config.Config) port.JobExecutionListener {
	return NewMetricsJobListener(recorder, cfg.Trajbatch.Metrics.TextfilePath)
}

// Module registers the metrics listeners in the listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(newJobListener, fx.ResultTags(`group:"jobListeners"`))),
	fx.Provide(fx.Annotate(NewMetricsStepListener, fx.ResultTags(`group:"stepListeners"`))),
	fx.Provide(fx.Annotate(NewMetricsInvocationListener, fx.ResultTags(`group:"invocationListeners"`))),
)
