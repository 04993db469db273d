package process

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
)

// Module provides the os/exec CommandExecutor.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewExecutor,
		fx.As(new(port.CommandExecutor)),
	)),
)
