// Package process runs external programs for the batch through os/exec.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// Executor implements port.CommandExecutor with exec.CommandContext.
// Stdout and stderr are buffered separately and returned whole.
type Executor struct{}

// NewExecutor creates an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs req and waits for it to exit. Cancelling ctx or exceeding req.Timeout kills the process.
func (e *Executor) Execute(ctx context.Context, req port.CommandRequest) port.CommandOutput {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, req.Path, req.Args...)
	cmd.Dir = req.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := port.CommandOutput{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return out
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		out.ExitCode = -1
		out.Err = fmt.Errorf("%s: %w", req.Path, ctx.Err())
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		out.Err = fmt.Errorf("%s exited with status %d", req.Path, out.ExitCode)
	default:
		// The process never started (missing binary, bad working directory).
		out.ExitCode = -1
		out.Err = fmt.Errorf("failed to start %s: %w", req.Path, err)
	}
	logger.Debugf("Command '%s' in '%s' failed after %s: %v", req.Path, req.Dir, out.Duration, out.Err)
	return out
}

var _ port.CommandExecutor = (*Executor)(nil)
