package model

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// JobStatus represents the state of a job or step execution.
type JobStatus string

const (
	BatchStatusStarting  JobStatus = "STARTING"
	BatchStatusStarted   JobStatus = "STARTED"
	BatchStatusStopped   JobStatus = "STOPPED"
	BatchStatusCompleted JobStatus = "COMPLETED"
	BatchStatusFailed    JobStatus = "FAILED"
	BatchStatusAbandoned JobStatus = "ABANDONED"
	BatchStatusUnknown   JobStatus = "UNKNOWN"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsFinished checks if the JobStatus represents a finished state.
func (s JobStatus) IsFinished() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusStopped, BatchStatusAbandoned:
		return true
	default:
		return false
	}
}

// ExitStatus represents the detailed status upon job/step completion.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	// ExitStatusCompletedWithFailures marks a run whose invocations partly failed.
	ExitStatusCompletedWithFailures ExitStatus = "COMPLETED_WITH_FAILURES"
	ExitStatusFailed                ExitStatus = "FAILED"
	ExitStatusStopped               ExitStatus = "STOPPED"
)

// String returns the ExitStatus as a string.
func (s ExitStatus) String() string {
	return string(s)
}

// ExecutionContext is a key-value store attached to job and step executions.
type ExecutionContext map[string]interface{}

// ExecutionContext keys written by run steps and the job.
const (
	// ContextKeyRunDir is the absolute working directory of a run.
	ContextKeyRunDir = "run_dir"
	// ContextKeyLogFile is the path of the run log.
	ContextKeyLogFile = "log_file"
	// ContextKeyControlFile is the path of the last CONTROL file written by a run.
	ContextKeyControlFile = "control_file"
	// ContextKeyElapsedSeconds is the wall-clock duration of the whole job.
	ContextKeyElapsedSeconds = "elapsed_seconds"
	// ContextKeyRowsSkipped is the number of malformed runs file rows.
	ContextKeyRowsSkipped = "rows_skipped"
)

// Value implements driver.Valuer, converting the ExecutionContext to a JSON string.
func (ec ExecutionContext) Value() (driver.Value, error) {
	if ec == nil {
		return "{}", nil
	}
	data, err := json.Marshal(ec)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner, converting a JSON string to an ExecutionContext.
func (ec *ExecutionContext) Scan(value interface{}) error {
	b, err := scanBytes(value, "ExecutionContext")
	if err != nil {
		return err
	}
	*ec = make(ExecutionContext)
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, ec); err != nil {
		return fmt.Errorf("failed to unmarshal ExecutionContext JSON: %w", err)
	}
	return nil
}

// NewExecutionContext creates an empty ExecutionContext.
func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

// Put stores value under key.
func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

// Get returns the value stored under key.
func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	v, ok := ec[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (ec ExecutionContext) GetString(key string) (string, bool) {
	if v, ok := ec[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// GetInt returns the value under key as an int. JSON numbers decoded as float64 are accepted.
func (ec ExecutionContext) GetInt(key string) (int, bool) {
	switch v := ec[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// JobParameters holds the parameters a job execution was launched with.
type JobParameters struct {
	Params map[string]interface{}
}

// NewJobParameters creates empty JobParameters.
func NewJobParameters() JobParameters {
	return JobParameters{Params: make(map[string]interface{})}
}

// Put stores a parameter.
func (jp JobParameters) Put(key string, value interface{}) {
	jp.Params[key] = value
}

// GetString returns a string parameter.
func (jp JobParameters) GetString(key string) (string, bool) {
	if v, ok := jp.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Value implements driver.Valuer.
func (jp JobParameters) Value() (driver.Value, error) {
	if jp.Params == nil {
		return "{}", nil
	}
	data, err := json.Marshal(jp.Params)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (jp *JobParameters) Scan(value interface{}) error {
	b, err := scanBytes(value, "JobParameters")
	if err != nil {
		return err
	}
	jp.Params = make(map[string]interface{})
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &jp.Params); err != nil {
		return fmt.Errorf("failed to unmarshal JobParameters JSON: %w", err)
	}
	return nil
}

// FailureList holds a list of error messages.
type FailureList []string

// Value implements driver.Valuer, converting FailureList to a JSON string.
func (fl FailureList) Value() (driver.Value, error) {
	if fl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner, converting a JSON string to FailureList.
func (fl *FailureList) Scan(value interface{}) error {
	b, err := scanBytes(value, "FailureList")
	if err != nil {
		return err
	}
	*fl = make(FailureList, 0)
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, fl); err != nil {
		return fmt.Errorf("failed to unmarshal FailureList JSON: %w", err)
	}
	return nil
}

func scanBytes(value interface{}, typeName string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported Scan type for %s: %T", typeName, value)
	}
}

// JobExecution is one execution of the batch over a runs file.
type JobExecution struct {
	ID               string
	JobName          string
	Parameters       JobParameters
	StartTime        time.Time
	EndTime          *time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         FailureList
	CreateTime       time.Time
	LastUpdated      time.Time
	StepExecutions   []*StepExecution
	ExecutionContext ExecutionContext
	CancelFunc       context.CancelFunc
}

// StepExecution is the execution of one run (one row of the runs file).
type StepExecution struct {
	ID             string
	StepName       string
	JobExecution   *JobExecution
	JobExecutionID string
	StartTime      time.Time
	EndTime        *time.Time
	Status         JobStatus
	ExitStatus     ExitStatus
	Failures       FailureList
	// RenderCount is the number of CONTROL files written.
	RenderCount int
	// InvocationCount is the number of model invocations attempted.
	InvocationCount int
	// InvocationFailureCount is the number of invocations that failed.
	InvocationFailureCount int
	ExecutionContext       ExecutionContext
	LastUpdated            time.Time
}

// InvocationResult is the outcome of one model invocation within a run.
type InvocationResult struct {
	Date     time.Time
	Hour     string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the invocation started and exited with status 0.
func (r *InvocationResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// NewID generates a unique execution ID.
func NewID() string {
	return uuid.New().String()
}

// NewJobExecution creates a new JobExecution in STARTING state.
func NewJobExecution(jobName string, params JobParameters) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:               NewID(),
		JobName:          jobName,
		Parameters:       params,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		CreateTime:       now,
		LastUpdated:      now,
		Failures:         make(FailureList, 0),
		StepExecutions:   make([]*StepExecution, 0),
		ExecutionContext: NewExecutionContext(),
	}
}

// isValidTransition checks a status change for both job and step executions.
func isValidTransition(current, next JobStatus) bool {
	switch current {
	case BatchStatusStarting:
		return next == BatchStatusStarted || next == BatchStatusFailed || next == BatchStatusStopped || next == BatchStatusAbandoned
	case BatchStatusStarted:
		return next == BatchStatusCompleted || next == BatchStatusFailed || next == BatchStatusStopped || next == BatchStatusAbandoned
	default:
		return false
	}
}

// TransitionTo safely transitions the state of JobExecution.
func (je *JobExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidTransition(je.Status, newStatus) {
		return fmt.Errorf("JobExecution (ID: %s): Invalid state transition: %s -> %s", je.ID, je.Status, newStatus)
	}
	je.Status = newStatus
	return nil
}

// MarkAsStarted updates the JobExecution status to STARTED.
func (je *JobExecution) MarkAsStarted() {
	if err := je.TransitionTo(BatchStatusStarted); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to STARTED: %v", je.ID, err)
		je.Status = BatchStatusStarted
	}
	je.StartTime = time.Now()
	je.LastUpdated = je.StartTime
}

// MarkAsCompleted updates the JobExecution status to COMPLETED.
func (je *JobExecution) MarkAsCompleted() {
	je.finish(BatchStatusCompleted, ExitStatusCompleted)
}

// MarkAsFailed updates the JobExecution status to FAILED and records err.
func (je *JobExecution) MarkAsFailed(err error) {
	je.finish(BatchStatusFailed, ExitStatusFailed)
	je.AddFailureException(err)
}

// MarkAsStopped updates the JobExecution status to STOPPED.
func (je *JobExecution) MarkAsStopped() {
	je.finish(BatchStatusStopped, ExitStatusStopped)
}

func (je *JobExecution) finish(status JobStatus, exit ExitStatus) {
	if err := je.TransitionTo(status); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to %s: %v", je.ID, status, err)
		je.Status = status
	}
	je.ExitStatus = exit
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
}

// Elapsed returns the wall-clock duration of the execution, up to now when it has not ended.
func (je *JobExecution) Elapsed() time.Duration {
	if je.EndTime != nil {
		return je.EndTime.Sub(je.StartTime)
	}
	return time.Since(je.StartTime)
}

// AddFailureException adds error information to JobExecution. Duplicate messages are skipped.
func (je *JobExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	je.Failures = appendFailure(je.Failures, err)
	je.LastUpdated = time.Now()
}

// AddStepExecution adds a StepExecution to JobExecution.
func (je *JobExecution) AddStepExecution(se *StepExecution) {
	je.StepExecutions = append(je.StepExecutions, se)
}

// NewStepExecution creates a StepExecution in STARTING state attached to jobExecution.
func NewStepExecution(jobExecution *JobExecution, stepName string) *StepExecution {
	now := time.Now()
	return &StepExecution{
		ID:               NewID(),
		StepName:         stepName,
		JobExecutionID:   jobExecution.ID,
		JobExecution:     jobExecution,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		Failures:         make(FailureList, 0),
		ExecutionContext: NewExecutionContext(),
		LastUpdated:      now,
	}
}

// TransitionTo safely transitions the state of StepExecution.
func (se *StepExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidTransition(se.Status, newStatus) {
		return fmt.Errorf("StepExecution (ID: %s): Invalid state transition: %s -> %s", se.ID, se.Status, newStatus)
	}
	se.Status = newStatus
	return nil
}

// MarkAsStarted updates the StepExecution status to STARTED.
func (se *StepExecution) MarkAsStarted() {
	if err := se.TransitionTo(BatchStatusStarted); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to STARTED: %v", se.ID, err)
		se.Status = BatchStatusStarted
	}
	se.StartTime = time.Now()
	se.LastUpdated = se.StartTime
}

// MarkAsCompleted updates the StepExecution status to COMPLETED with the given exit status.
func (se *StepExecution) MarkAsCompleted(exit ExitStatus) {
	se.finish(BatchStatusCompleted, exit)
}

// MarkAsFailed updates the StepExecution status to FAILED and records err.
func (se *StepExecution) MarkAsFailed(err error) {
	se.finish(BatchStatusFailed, ExitStatusFailed)
	se.AddFailureException(err)
}

// MarkAsStopped updates the StepExecution status to STOPPED.
func (se *StepExecution) MarkAsStopped() {
	se.finish(BatchStatusStopped, ExitStatusStopped)
}

func (se *StepExecution) finish(status JobStatus, exit ExitStatus) {
	if err := se.TransitionTo(status); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to %s: %v", se.ID, status, err)
		se.Status = status
	}
	se.ExitStatus = exit
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
}

// AddFailureException adds error information to StepExecution. Duplicate messages are skipped.
func (se *StepExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	se.Failures = appendFailure(se.Failures, err)
	se.LastUpdated = time.Now()
}

func appendFailure(failures FailureList, err error) FailureList {
	errMsg := exception.ExtractErrorMessage(err)
	for _, existing := range failures {
		if existing == errMsg {
			logger.Debugf("Skipped adding duplicate error '%s'.", errMsg)
			return failures
		}
	}
	return append(failures, errMsg)
}
