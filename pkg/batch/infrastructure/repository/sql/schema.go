package sql

import (
	"time"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// JobExecutionEntity is the persisted form of a model.JobExecution.
type JobExecutionEntity struct {
	ID               string              `gorm:"primaryKey;size:36"`
	JobName          string              `gorm:"size:255;index"`
	Parameters       model.JobParameters `gorm:"type:text"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           model.JobStatus   `gorm:"size:32"`
	ExitStatus       model.ExitStatus  `gorm:"size:32"`
	Failures         model.FailureList `gorm:"type:text"`
	CreateTime       time.Time         `gorm:"index"`
	LastUpdated      time.Time
	ExecutionContext model.ExecutionContext `gorm:"type:text"`
}

func (JobExecutionEntity) TableName() string {
	return "batch_job_execution"
}

// StepExecutionEntity is the persisted form of a model.StepExecution (one run).
type StepExecutionEntity struct {
	ID                     string `gorm:"primaryKey;size:36"`
	StepName               string `gorm:"size:255"`
	JobExecutionID         string `gorm:"size:36;index"`
	StartTime              time.Time
	EndTime                *time.Time
	Status                 model.JobStatus   `gorm:"size:32"`
	ExitStatus             model.ExitStatus  `gorm:"size:32"`
	Failures               model.FailureList `gorm:"type:text"`
	RenderCount            int
	InvocationCount        int
	InvocationFailureCount int
	ExecutionContext       model.ExecutionContext `gorm:"type:text"`
	LastUpdated            time.Time
}

func (StepExecutionEntity) TableName() string {
	return "batch_step_execution"
}
