package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/listener/archive"
	"github.com/tigerroll/trajbatch/pkg/batch/listener/logging"
	"github.com/tigerroll/trajbatch/pkg/batch/listener/metrics"
)

// Module aggregates the listener modules.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	archive.Module,
)
