package app

import (
	"context"
	"os"
	"sync"

	"go.uber.org/fx"

	appJob "github.com/tigerroll/trajbatch/internal/job"
	gormAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/process"
	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	usecase "github.com/tigerroll/trajbatch/pkg/batch/core/application/usecase"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository"
	batchlistener "github.com/tigerroll/trajbatch/pkg/batch/listener"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// Mode selects what the application does once the container has started.
type Mode int

const (
	// ModeRun launches the trajectory job.
	ModeRun Mode = iota
	// ModeShowLast prints the last recorded execution of the job without running it.
	ModeShowLast
)

// outcome carries the final JobExecution out of the fx lifecycle.
type outcome struct {
	mu        sync.Mutex
	execution *model.JobExecution
	done      chan struct{}
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{})}
}

func (o *outcome) set(je *model.JobExecution) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.execution = je
}

func (o *outcome) get() *model.JobExecution {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.execution
}

// RunApplication loads the configuration, assembles the fx application and runs it
// until the job has finished. It returns the process exit code.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, mode Mode, adapterOptions []fx.Option) int {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		return ExitCodeFailed
	}

	logger.SetLogLevel(cfg.Trajbatch.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Trajbatch.System.Logging.Level)

	result := newOutcome()

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			cfg,
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
			mode,
			result,
		),

		fx.Options(adapterOptions...),
		logger.Module,
		config.Module,
		metrics.Module,

		gormAdapter.Module,
		storageAdapter.Module,
		process.Module,

		repository.Module,
		usecase.Module,
		batchlistener.Module,
		appJob.Module,

		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // jobLauncher usecase.JobLauncher
			"",              // jobOperator usecase.JobOperator
			"",              // jobExplorer usecase.JobExplorer
			"",              // job port.Job
			"",              // cfg *config.Config
			"",              // mode Mode
			"",              // result *outcome
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if err := app.Err(); err != nil {
		logger.Errorf("Application run failed: %v", err)
		return ExitCodeFailed
	}

	je := result.get()
	if mode == ModeShowLast {
		if je == nil {
			return ExitCodeFailed
		}
		return ExitCodeCompleted
	}
	return ExitCode(je)
}

// startJobExecution is invoked by fx to start the job once the application has started.
func startJobExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	jobLauncher usecase.JobLauncher,
	jobOperator usecase.JobOperator,
	jobExplorer usecase.JobExplorer,
	job port.Job,
	cfg *config.Config,
	mode Mode,
	result *outcome,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartJobExecution(jobLauncher, jobExplorer, job, cfg, mode, result, shutdowner, appCtx),
		OnStop:  onStopApplication(jobOperator, result),
	})
}

// onStartJobExecution runs the job in its own goroutine and requests shutdown when it returns.
func onStartJobExecution(
	jobLauncher usecase.JobLauncher,
	jobExplorer usecase.JobExplorer,
	job port.Job,
	cfg *config.Config,
	mode Mode,
	result *outcome,
	shutdowner fx.Shutdowner,
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in job execution: %v", r)
				}
				close(result.done)
				logger.Debugf("Requesting application shutdown after job completion.")
				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to shutdown application: %v", err)
				}
			}()

			jobName := cfg.Trajbatch.Batch.JobName

			if mode == ModeShowLast {
				je, err := ShowLastExecution(appCtx, jobExplorer, jobName, os.Stdout)
				if err != nil {
					logger.Errorf("Failed to show the last execution of job '%s': %v", jobName, err)
				}
				result.set(je)
				return
			}

			logger.Infof("Starting job '%s'...", jobName)
			je, err := jobLauncher.Launch(appCtx, job, model.NewJobParameters())
			if err != nil {
				logger.Errorf("Failed to launch job '%s': %v", jobName, err)
				return
			}
			result.set(je)
			logger.Infof("Job '%s' (Execution ID: %s) finished with status: %s, ExitStatus: %s",
				jobName, je.ID, je.Status, je.ExitStatus)
			if err := WriteSummary(os.Stdout, je); err != nil {
				logger.Errorf("Failed to write summary: %v", err)
			}
		}()
		return nil
	}
}

// onStopApplication stops a job that is still running and waits for it to record its final state.
func onStopApplication(jobOperator usecase.JobOperator, result *outcome) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Infof("Application is shutting down.")
		jobOperator.StopAll(ctx)
		select {
		case <-result.done:
		case <-ctx.Done():
			logger.Warnf("Job did not finish before the shutdown timeout.")
		}
		return nil
	}
}
