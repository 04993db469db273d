// Package tasklet runs the trajectory model over every date and hour of one run.
package tasklet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	runmodel "github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/internal/hysplit"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	exception "github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

const module = "TrajectoryTasklet"

// TrajectoryTasklet executes one run: it prepares the run directory, then renders CONTROL and
// invokes the model binary for each date and hour, appending the model output to the run log.
type TrajectoryTasklet struct {
	run        *runmodel.RunDescriptor
	runDir     string
	binaryPath string
	renderer   *hysplit.Renderer
	executor   port.CommandExecutor
	modelCfg   config.ModelConfig
	batchCfg   config.BatchConfig
	listeners  []port.InvocationListener
	recorder   metrics.MetricRecorder
	tracer     metrics.Tracer

	log *os.File
}

// RunDir returns the absolute working directory of a run. Relative output folders are
// resolved against outputRoot.
func RunDir(outputRoot, outputFolder string) (string, error) {
	dir := outputFolder
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(outputRoot, outputFolder)
	}
	return filepath.Abs(dir)
}

// Execute runs every invocation of the run. Invocation failures are recorded on stepExecution
// and, unless the run is configured to abort on them, processing continues with the next hour.
func (t *TrajectoryTasklet) Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error) {
	if err := t.prepare(stepExecution); err != nil {
		return model.ExitStatusFailed, err
	}

	failed := 0
	for _, date := range t.run.Dates() {
		for _, hour := range t.run.Hours {
			if err := ctx.Err(); err != nil {
				logger.Warnf("Run '%s' interrupted before %s %s.", stepExecution.StepName, date.Format(time.DateOnly), hour)
				return model.ExitStatusStopped, err
			}

			spec := t.renderer.Render(t.run, date, hour, t.runDir)
			if err := hysplit.WriteControlFile(t.runDir, spec.Bytes()); err != nil {
				return model.ExitStatusFailed, exception.NewIOError(module, fmt.Sprintf("failed to write CONTROL in '%s'", t.runDir), err)
			}
			stepExecution.RenderCount++
			t.recorder.RecordControlRender(ctx, stepExecution.StepName)

			result := t.invoke(ctx, stepExecution, date, hour)
			stepExecution.InvocationCount++
			if err := t.appendLog(result); err != nil {
				return model.ExitStatusFailed, err
			}
			for _, l := range t.listeners {
				l.AfterInvocation(ctx, stepExecution, result)
			}

			if result.Succeeded() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return model.ExitStatusStopped, err
			}
			failed++
			stepExecution.InvocationFailureCount++
			subErr := exception.NewSubprocessError(module,
				fmt.Sprintf("invocation %s %s exited with code %d", date.Format(time.DateOnly), hour, result.ExitCode), result.Err)
			stepExecution.AddFailureException(subErr)
			logger.Warnf("Run '%s': %v", stepExecution.StepName, subErr)
			if t.batchCfg.AbortRunOnInvocationFailure {
				return model.ExitStatusFailed, subErr
			}
		}
	}

	logger.Infof("Run '%s' finished: %d invocation(s), %d failed.", stepExecution.StepName, stepExecution.InvocationCount, failed)
	if failed > 0 {
		return model.ExitStatusCompletedWithFailures, nil
	}
	return model.ExitStatusCompleted, nil
}

// Close closes the run log.
func (t *TrajectoryTasklet) Close(ctx context.Context) error {
	if t.log == nil {
		return nil
	}
	err := t.log.Close()
	t.log = nil
	if err != nil {
		return exception.NewIOError(module, "failed to close run log", err)
	}
	return nil
}

// prepare creates the run directory, writes the static model configuration and truncates the run log.
func (t *TrajectoryTasklet) prepare(stepExecution *model.StepExecution) error {
	if err := os.MkdirAll(t.runDir, 0o755); err != nil {
		return exception.NewIOError(module, fmt.Sprintf("failed to create run directory '%s'", t.runDir), err)
	}
	if err := hysplit.WriteStaticFiles(t.runDir, t.modelCfg.BoundaryDir); err != nil {
		return exception.NewIOError(module, fmt.Sprintf("failed to write static configuration in '%s'", t.runDir), err)
	}
	logPath := filepath.Join(t.runDir, t.batchCfg.LogFileName)
	f, err := os.Create(logPath)
	if err != nil {
		return exception.NewIOError(module, fmt.Sprintf("failed to create run log '%s'", logPath), err)
	}
	t.log = f

	ec := stepExecution.ExecutionContext
	ec.Put(model.ContextKeyRunDir, t.runDir)
	ec.Put(model.ContextKeyLogFile, logPath)
	ec.Put(model.ContextKeyControlFile, filepath.Join(t.runDir, hysplit.ControlFileName))
	logger.Infof("Run '%s': %d date(s) x %d hour(s) in '%s'.", stepExecution.StepName, len(t.run.Dates()), len(t.run.Hours), t.runDir)
	return nil
}

func (t *TrajectoryTasklet) invoke(ctx context.Context, stepExecution *model.StepExecution, date time.Time, hour string) *model.InvocationResult {
	ctx, endSpan := t.tracer.StartInvocationSpan(ctx, stepExecution.StepName, date.Format(time.DateOnly), hour)
	defer endSpan()

	out := t.executor.Execute(ctx, port.CommandRequest{
		Path:    t.binaryPath,
		Dir:     t.runDir,
		Timeout: time.Duration(t.modelCfg.InvocationTimeoutSeconds) * time.Second,
	})
	result := &model.InvocationResult{
		Date:     date,
		Hour:     hour,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: out.ExitCode,
		Err:      out.Err,
		Duration: out.Duration,
	}

	if !result.Succeeded() {
		t.tracer.RecordError(ctx, module, out.Err)
	}
	return result
}

// appendLog writes stdout, then stderr, of one invocation to the run log.
func (t *TrajectoryTasklet) appendLog(result *model.InvocationResult) error {
	if _, err := t.log.Write(result.Stdout); err != nil {
		return exception.NewIOError(module, "failed to write run log", err)
	}
	if _, err := t.log.Write(result.Stderr); err != nil {
		return exception.NewIOError(module, "failed to write run log", err)
	}
	return nil
}

var _ port.Tasklet = (*TrajectoryTasklet)(nil)
