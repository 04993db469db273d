// Package exception provides the error types shared by trajbatch components.
// Errors are classified by sentinel so callers can decide whether a failure
// ends the batch, ends a single run, or is only recorded.
package exception

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// Names under which the domain sentinels are registered.
const (
	MalformedRowException = "MalformedRowError"
	IOException           = "IOError"
	SubprocessException   = "SubprocessError"
)

var (
	// ErrMalformedRow marks an input row that cannot be turned into a run descriptor.
	ErrMalformedRow = errors.New(MalformedRowException)
	// ErrIO marks a directory or file creation failure.
	ErrIO = errors.New(IOException)
	// ErrSubprocess marks a model binary that could not be started or exited non-zero.
	ErrSubprocess = errors.New(SubprocessException)
)

var (
	errorRegistry = make(map[string]error)
	registryMutex sync.RWMutex
)

// RegisterErrorType registers a named sentinel error.
// It panics when name is empty or prototype is nil.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}
	errorRegistry[name] = prototype
}

// IsErrorOfType reports whether err matches the sentinel registered under name.
func IsErrorOfType(err error, name string) bool {
	if err == nil {
		return false
	}
	registryMutex.RLock()
	target, ok := errorRegistry[name]
	registryMutex.RUnlock()
	return ok && errors.Is(err, target)
}

func init() {
	RegisterErrorType(MalformedRowException, ErrMalformedRow)
	RegisterErrorType(IOException, ErrIO)
	RegisterErrorType(SubprocessException, ErrSubprocess)
}

// BatchError is the error type raised by trajbatch components.
// It records the module where the failure happened, a short message, the wrapped
// cause, and whether the failure may be skipped or retried.
type BatchError struct {
	// Module is the component that failed (e.g., "reader", "tasklet", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped cause.
	OriginalErr error
	isRetryable bool
	isSkippable bool
	// StackTrace is captured at construction for debugging.
	StackTrace string
}

// NewBatchError creates a new BatchError.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a BatchError with a formatted message.
// A trailing error argument is taken as the cause and is not used for formatting.
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	if n := len(a); n > 0 {
		if err, ok := a[n-1].(error); ok {
			originalErr = err
			a = a[:n-1]
		}
	}
	return NewBatchError(module, fmt.Sprintf(format, a...), originalErr, false, false)
}

// NewMalformedRowError reports a bad input row. Malformed rows are skippable:
// the loader moves on to the next row.
func NewMalformedRowError(module string, row int, message string, cause error) *BatchError {
	return NewBatchError(module, fmt.Sprintf("row %d: %s", row, message), join(ErrMalformedRow, cause), true, false)
}

// NewIOError reports a directory or file creation failure.
func NewIOError(module, message string, cause error) *BatchError {
	return NewBatchError(module, message, join(ErrIO, cause), false, false)
}

// NewSubprocessError reports a failed model invocation.
func NewSubprocessError(module, message string, cause error) *BatchError {
	return NewBatchError(module, message, join(ErrSubprocess, cause), true, false)
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Is and errors.As.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError reports whether err is, or wraps, a *BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// IsFatal reports whether err is neither retryable nor skippable.
// Errors that are not BatchErrors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return !be.IsRetryable() && !be.IsSkippable()
	}
	return true
}

// ExtractErrorMessage returns the Message of a BatchError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
