package inmemory

import (
	"context"
	"fmt"

	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
)

// SaveJobExecution persists a new JobExecution.
// It returns an error if a JobExecution with the same ID already exists.
func (r *InMemoryJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; exists {
		return fmt.Errorf("JobExecution with ID %s already exists", jobExecution.ID)
	}
	r.jobExecutions[jobExecution.ID] = jobExecution
	r.jobOrder = append(r.jobOrder, jobExecution.ID)
	return nil
}

// UpdateJobExecution updates an existing JobExecution.
func (r *InMemoryJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; !exists {
		return fmt.Errorf("JobExecution with ID %s not found for update: %w", jobExecution.ID, repository.ErrJobExecutionNotFound)
	}
	r.jobExecutions[jobExecution.ID] = jobExecution
	return nil
}

// FindJobExecutionByID returns a copy of the JobExecution with its StepExecutions in start order.
func (r *InMemoryJobRepository) FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobExecution, ok := r.jobExecutions[id]
	if !ok {
		return nil, repository.ErrJobExecutionNotFound
	}

	cloned := *jobExecution
	cloned.StepExecutions = r.stepsOf(id)
	return &cloned, nil
}

// FindLatestJobExecution returns the most recently saved execution of jobName.
func (r *InMemoryJobRepository) FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	r.mu.RLock()
	var latestID string
	for i := len(r.jobOrder) - 1; i >= 0; i-- {
		if r.jobExecutions[r.jobOrder[i]].JobName == jobName {
			latestID = r.jobOrder[i]
			break
		}
	}
	r.mu.RUnlock()

	if latestID == "" {
		return nil, repository.ErrJobExecutionNotFound
	}
	return r.FindJobExecutionByID(ctx, latestID)
}

// stepsOf must be called with r.mu held.
func (r *InMemoryJobRepository) stepsOf(jobExecutionID string) []*model.StepExecution {
	steps := make([]*model.StepExecution, 0)
	for _, id := range r.stepOrder {
		if se := r.stepExecutions[id]; se.JobExecutionID == jobExecutionID {
			steps = append(steps, se)
		}
	}
	return steps
}
