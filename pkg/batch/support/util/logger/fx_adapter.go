package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes fx container events through this package.
// Wiring chatter goes to DEBUG; failures go to ERROR.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter creates a new instance of FxLoggerAdapter.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent logs events from Fx.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		Debugf("OnStart hook executing: %s", shortFunctionName(e.FunctionName))
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Errorf("OnStart hook failed: %s, error: %v", shortFunctionName(e.FunctionName), e.Err)
		} else {
			Debugf("OnStart hook executed: %s (%s)", shortFunctionName(e.FunctionName), e.Runtime)
		}
	case *fxevent.OnStopExecuting:
		Debugf("OnStop hook executing: %s", shortFunctionName(e.FunctionName))
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Errorf("OnStop hook failed: %s, error: %v", shortFunctionName(e.FunctionName), e.Err)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			Errorf("Supply failed: %v", e.Err)
		}
	case *fxevent.Provided:
		if e.Err != nil {
			Errorf("Provide failed: %v", e.Err)
			return
		}
		for _, rtype := range e.OutputTypeNames {
			Debugf("Provided: %s", rtype)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("Invoke failed: %s, error: %v", e.FunctionName, e.Err)
		}
	case *fxevent.Stopping:
		Debugf("Stopping signal received: %s", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			Errorf("Stop failed, error: %v", e.Err)
		}
	case *fxevent.RollingBack:
		Errorf("Start failed, rolling back, error: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			Errorf("Rollback failed, error: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("Start failed, error: %v", e.Err)
		} else {
			Debugf("Application started.")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			Errorf("Logger initialization failed, error: %v", e.Err)
		}
	}
}

// shortFunctionName strips the ".funcN" suffix fx reports for closures.
func shortFunctionName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
