package inmemory

import (
	"context"
	"fmt"

	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
)

// SaveStepExecution persists a new StepExecution.
func (r *InMemoryJobRepository) SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stepExecutions[stepExecution.ID]; exists {
		return fmt.Errorf("StepExecution with ID %s already exists", stepExecution.ID)
	}
	r.stepExecutions[stepExecution.ID] = stepExecution
	r.stepOrder = append(r.stepOrder, stepExecution.ID)
	return nil
}

// UpdateStepExecution updates an existing StepExecution.
func (r *InMemoryJobRepository) UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stepExecutions[stepExecution.ID]; !exists {
		return fmt.Errorf("StepExecution with ID %s not found for update: %w", stepExecution.ID, repository.ErrStepExecutionNotFound)
	}
	r.stepExecutions[stepExecution.ID] = stepExecution
	return nil
}

// FindStepExecutionByID finds a StepExecution by its ID.
func (r *InMemoryJobRepository) FindStepExecutionByID(ctx context.Context, id string) (*model.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	se, ok := r.stepExecutions[id]
	if !ok {
		return nil, repository.ErrStepExecutionNotFound
	}
	return se, nil
}

// FindStepExecutionsByJobExecutionID returns the StepExecutions of a job execution in save order.
func (r *InMemoryJobRepository) FindStepExecutionsByJobExecutionID(ctx context.Context, jobExecutionID string) ([]*model.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stepsOf(jobExecutionID), nil
}
