package sql

import (
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

func fromDomainJobExecution(je *model.JobExecution) *JobExecutionEntity {
	return &JobExecutionEntity{
		ID:               je.ID,
		JobName:          je.JobName,
		Parameters:       je.Parameters,
		StartTime:        je.StartTime,
		EndTime:          je.EndTime,
		Status:           je.Status,
		ExitStatus:       je.ExitStatus,
		Failures:         je.Failures,
		CreateTime:       je.CreateTime,
		LastUpdated:      je.LastUpdated,
		ExecutionContext: je.ExecutionContext,
	}
}

// toDomainJobExecution leaves StepExecutions empty; the repository loads them separately.
func toDomainJobExecution(e *JobExecutionEntity) *model.JobExecution {
	return &model.JobExecution{
		ID:               e.ID,
		JobName:          e.JobName,
		Parameters:       e.Parameters,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		Status:           e.Status,
		ExitStatus:       e.ExitStatus,
		Failures:         e.Failures,
		CreateTime:       e.CreateTime,
		LastUpdated:      e.LastUpdated,
		ExecutionContext: e.ExecutionContext,
		StepExecutions:   make([]*model.StepExecution, 0),
	}
}

func fromDomainStepExecution(se *model.StepExecution) *StepExecutionEntity {
	return &StepExecutionEntity{
		ID:                     se.ID,
		StepName:               se.StepName,
		JobExecutionID:         se.JobExecutionID,
		StartTime:              se.StartTime,
		EndTime:                se.EndTime,
		Status:                 se.Status,
		ExitStatus:             se.ExitStatus,
		Failures:               se.Failures,
		RenderCount:            se.RenderCount,
		InvocationCount:        se.InvocationCount,
		InvocationFailureCount: se.InvocationFailureCount,
		ExecutionContext:       se.ExecutionContext,
		LastUpdated:            se.LastUpdated,
	}
}

func toDomainStepExecution(e *StepExecutionEntity) *model.StepExecution {
	return &model.StepExecution{
		ID:                     e.ID,
		StepName:               e.StepName,
		JobExecutionID:         e.JobExecutionID,
		StartTime:              e.StartTime,
		EndTime:                e.EndTime,
		Status:                 e.Status,
		ExitStatus:             e.ExitStatus,
		Failures:               e.Failures,
		RenderCount:            e.RenderCount,
		InvocationCount:        e.InvocationCount,
		InvocationFailureCount: e.InvocationFailureCount,
		ExecutionContext:       e.ExecutionContext,
		LastUpdated:            e.LastUpdated,
	}
}
