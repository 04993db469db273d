package tasklet

import (
	"fmt"
	"path/filepath"
	"strings"

	runmodel "github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/internal/hysplit"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
)

// Factory builds one TrajectoryTasklet per run from the shared model configuration.
type Factory struct {
	renderer   *hysplit.Renderer
	executor   port.CommandExecutor
	binaryPath string
	modelCfg   config.ModelConfig
	batchCfg   config.BatchConfig
	listeners  []port.InvocationListener
	recorder   metrics.MetricRecorder
	tracer     metrics.Tracer
}

// NewFactory validates the model configuration and returns a Factory.
// A binary path containing a separator and the meteo and boundary dirs are made absolute,
// since the model runs in the run directory.
func NewFactory(
	cfg *config.Config,
	executor port.CommandExecutor,
	listeners []port.InvocationListener,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) (*Factory, error) {
	renderer, err := hysplit.NewRenderer(cfg.Trajbatch.Model)
	if err != nil {
		return nil, exception.NewBatchError(module, "invalid model configuration", err, false, false)
	}
	binaryPath := cfg.Trajbatch.Model.BinaryPath
	if strings.ContainsRune(binaryPath, filepath.Separator) || strings.ContainsRune(binaryPath, '/') {
		if binaryPath, err = filepath.Abs(binaryPath); err != nil {
			return nil, exception.NewIOError(module, fmt.Sprintf("failed to resolve binary path '%s'", cfg.Trajbatch.Model.BinaryPath), err)
		}
	}
	modelCfg := cfg.Trajbatch.Model
	if modelCfg.BoundaryDir, err = hysplit.AbsDir(modelCfg.BoundaryDir); err != nil {
		return nil, exception.NewIOError(module, fmt.Sprintf("failed to resolve boundary dir '%s'", cfg.Trajbatch.Model.BoundaryDir), err)
	}
	if modelCfg.MeteoDir, err = hysplit.AbsDir(modelCfg.MeteoDir); err != nil {
		return nil, exception.NewIOError(module, fmt.Sprintf("failed to resolve meteo dir '%s'", cfg.Trajbatch.Model.MeteoDir), err)
	}
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &Factory{
		renderer:   renderer,
		executor:   executor,
		binaryPath: binaryPath,
		modelCfg:   modelCfg,
		batchCfg:   cfg.Trajbatch.Batch,
		listeners:  listeners,
		recorder:   recorder,
		tracer:     tracer,
	}, nil
}

// New returns the tasklet for run.
func (f *Factory) New(run *runmodel.RunDescriptor) (*TrajectoryTasklet, error) {
	runDir, err := RunDir(f.batchCfg.OutputRoot, run.OutputFolder)
	if err != nil {
		return nil, exception.NewIOError(module, fmt.Sprintf("failed to resolve run directory for '%s'", run.OutputFolder), err)
	}
	return &TrajectoryTasklet{
		run:        run,
		runDir:     runDir,
		binaryPath: f.binaryPath,
		renderer:   f.renderer,
		executor:   f.executor,
		modelCfg:   f.modelCfg,
		batchCfg:   f.batchCfg,
		listeners:  f.listeners,
		recorder:   f.recorder,
		tracer:     f.tracer,
	}, nil
}
