// Package inmemory provides an in-memory implementation of the JobRepository interface.
// It keeps the execution history of the current process only.
package inmemory

import (
	"sync"

	"github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
)

// InMemoryJobRepository is an in-memory implementation of the JobRepository interface.
type InMemoryJobRepository struct {
	jobExecutions  map[string]*model.JobExecution
	jobOrder       []string
	stepExecutions map[string]*model.StepExecution
	stepOrder      []string
	mu             sync.RWMutex
}

// NewInMemoryJobRepository creates and initializes a new instance of InMemoryJobRepository.
func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{
		jobExecutions:  make(map[string]*model.JobExecution),
		stepExecutions: make(map[string]*model.StepExecution),
	}
}

// Close releases resources used by the repository. It holds none.
func (r *InMemoryJobRepository) Close() error {
	return nil
}
