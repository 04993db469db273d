package job

import (
	"go.uber.org/fx"

	runmodel "github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/internal/step/reader"
	"github.com/tigerroll/trajbatch/internal/step/tasklet"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// NewRunsFileReader returns the reader over the configured runs file.
func NewRunsFileReader(cfg *config.Config) port.ItemReader[*runmodel.RunDescriptor] {
	return reader.NewRunDescriptorReader(cfg.Trajbatch.Batch.RunsFile)
}

// Module provides the trajectory job and its collaborators.
var Module = fx.Options(
	fx.Provide(NewRunsFileReader),
	fx.Provide(fx.Annotate(
		tasklet.NewFactory,
		fx.ParamTags(``, ``, `group:"invocationListeners"`, ``, ``),
	)),
	fx.Provide(fx.Annotate(
		NewTrajectoryJob,
		fx.ParamTags(``, ``, ``, ``, `group:"stepListeners"`, ``, ``),
		fx.As(new(port.Job)),
	)),
)
