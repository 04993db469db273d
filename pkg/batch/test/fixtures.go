package test

import (
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// NewStartedStepExecution returns a STARTED run execution attached to a fresh job execution.
func NewStartedStepExecution(jobName, stepName string) *model.StepExecution {
	je := model.NewJobExecution(jobName, model.NewJobParameters())
	se := model.NewStepExecution(je, stepName)
	se.MarkAsStarted()
	return se
}
