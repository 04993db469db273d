package logging

import (
	"go.uber.org/fx"
)

// Module registers the logging listeners in the listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLoggingJobListener, fx.ResultTags(`group:"jobListeners"`))),
	fx.Provide(fx.Annotate(NewLoggingStepListener, fx.ResultTags(`group:"stepListeners"`))),
	fx.Provide(fx.Annotate(NewLoggingInvocationListener, fx.ResultTags(`group:"invocationListeners"`))),
)
