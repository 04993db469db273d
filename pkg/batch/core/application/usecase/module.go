package usecase

import (
	"go.uber.org/fx"
)

// Module is the Fx module for JobLauncher, JobOperator, and JobExplorer.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewSimpleJobExplorer,
		fx.As(new(JobExplorer)),
	)),
	fx.Provide(fx.Annotate(
		NewSimpleJobLauncher,
		fx.ParamTags(``, `group:"jobListeners"`, ``),
	)),
	fx.Provide(func(launcher *SimpleJobLauncher) JobLauncher { return launcher }),
	fx.Provide(fx.Annotate(
		NewDefaultJobOperator,
		fx.As(new(JobOperator)),
	)),
)
