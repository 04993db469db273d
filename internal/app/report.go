package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	usecase "github.com/tigerroll/trajbatch/pkg/batch/core/application/usecase"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// Process exit codes derived from the final JobExecution.
const (
	ExitCodeCompleted             = 0
	ExitCodeFailed                = 1
	ExitCodeCompletedWithFailures = 2
	ExitCodeStopped               = 130
)

// ExitCode maps a finished JobExecution to the process exit code.
// A missing execution means the job never ran and counts as a failure.
func ExitCode(je *model.JobExecution) int {
	if je == nil {
		return ExitCodeFailed
	}
	switch je.Status {
	case model.BatchStatusCompleted:
		if je.ExitStatus == model.ExitStatusCompletedWithFailures {
			return ExitCodeCompletedWithFailures
		}
		return ExitCodeCompleted
	case model.BatchStatusStopped:
		return ExitCodeStopped
	default:
		return ExitCodeFailed
	}
}

// WriteSummary prints the job execution and one line per run.
func WriteSummary(w io.Writer, je *model.JobExecution) error {
	elapsed := je.Elapsed().Round(time.Second)
	if _, err := fmt.Fprintf(w, "Job '%s' (Execution ID: %s): %s / %s, elapsed %s\n",
		je.JobName, je.ID, je.Status, je.ExitStatus, elapsed); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tEXIT\tRENDERED\tINVOKED\tFAILED")
	for _, se := range je.StepExecutions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			se.StepName, se.Status, se.ExitStatus, se.RenderCount, se.InvocationCount, se.InvocationFailureCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range je.Failures {
		if _, err := fmt.Fprintf(w, "  - %s\n", f); err != nil {
			return err
		}
	}
	return nil
}

// ShowLastExecution writes the summary of the most recent execution of jobName to w.
// A job that has never run yields a nil execution and no error.
func ShowLastExecution(ctx context.Context, explorer usecase.JobExplorer, jobName string, w io.Writer) (*model.JobExecution, error) {
	je, err := explorer.GetLastJobExecution(ctx, jobName)
	if err != nil {
		if exception.IsErrorOfType(err, repository.JobExecutionNotFoundType) {
			logger.Warnf("No execution of job '%s' has been recorded.", jobName)
			return nil, nil
		}
		return nil, err
	}
	return je, WriteSummary(w, je)
}
