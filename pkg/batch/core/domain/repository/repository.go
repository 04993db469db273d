package repository

// JobRepository persists the execution history of the batch: one JobExecution per
// launch and one StepExecution per run.
type JobRepository interface {
	JobExecution
	StepExecution

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}
