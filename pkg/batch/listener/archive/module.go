package archive

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// newStepListeners returns the archive listener, or nothing when archiving is disabled.
func newStepListeners(cfg *config.Config, resolver *storageAdapter.ConnectionResolver, recorder metrics.MetricRecorder) []port.StepExecutionListener {
	ac := cfg.Trajbatch.Archive
	if ac.StorageRef == "" {
		logger.Debugf("Archiving disabled.")
		return nil
	}
	return []port.StepExecutionListener{NewStepListener(resolver, ac, recorder)}
}

// Module registers the archive listener in the step listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(newStepListeners, fx.ResultTags(`group:"stepListeners,flatten"`))),
)
