// Package sql persists job and run execution history through gorm.
package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// SQLJobRepository implements repository.JobRepository on a named database connection.
type SQLJobRepository struct {
	dbResolver database.DBConnectionResolver
	// dbName is the connection used by this repository (e.g., "metadata").
	dbName string
}

// NewSQLJobRepository creates a repository on the connection named dbName.
func NewSQLJobRepository(dbResolver database.DBConnectionResolver, dbName string) *SQLJobRepository {
	return &SQLJobRepository{dbResolver: dbResolver, dbName: dbName}
}

// db resolves the connection on every call so that a reconnect by the resolver is picked up.
func (r *SQLJobRepository) db(ctx context.Context) (*gorm.DB, error) {
	conn, err := r.dbResolver.ResolveDBConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to resolve DB connection '%s'", r.dbName), err, false, false)
	}
	return conn.GormDB().WithContext(ctx), nil
}

// Migrate creates or updates the execution tables.
func (r *SQLJobRepository) Migrate(ctx context.Context) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&JobExecutionEntity{}, &StepExecutionEntity{}); err != nil {
		return exception.NewBatchError("SQLJobRepository", "Failed to migrate job repository schema", err, false, false)
	}
	logger.Debugf("Job repository schema is up to date on '%s'.", r.dbName)
	return nil
}

// SaveJobExecution inserts a new JobExecution.
func (r *SQLJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(fromDomainJobExecution(jobExecution)).Error; err != nil {
		return exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to save JobExecution %s", jobExecution.ID), err, false, false)
	}
	return nil
}

// UpdateJobExecution overwrites every column of an existing JobExecution.
func (r *SQLJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	entity := fromDomainJobExecution(jobExecution)
	if err := updateAll(db, &JobExecutionEntity{}, entity.ID, entity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("JobExecution with ID %s not found for update: %w", jobExecution.ID, repository.ErrJobExecutionNotFound)
		}
		return exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to update JobExecution %s", jobExecution.ID), err, false, false)
	}
	return nil
}

// FindJobExecutionByID loads a JobExecution and its StepExecutions in start order.
func (r *SQLJobRepository) FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var entity JobExecutionEntity
	if err := db.Where("id = ?", executionID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to find JobExecution %s", executionID), err, false, false)
	}
	return r.withSteps(ctx, toDomainJobExecution(&entity))
}

// FindLatestJobExecution returns the most recently created execution of jobName.
func (r *SQLJobRepository) FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var entity JobExecutionEntity
	if err := db.Where("job_name = ?", jobName).Order("create_time DESC").First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to find latest JobExecution of '%s'", jobName), err, false, false)
	}
	return r.withSteps(ctx, toDomainJobExecution(&entity))
}

func (r *SQLJobRepository) withSteps(ctx context.Context, je *model.JobExecution) (*model.JobExecution, error) {
	steps, err := r.FindStepExecutionsByJobExecutionID(ctx, je.ID)
	if err != nil {
		return nil, err
	}
	for _, se := range steps {
		se.JobExecution = je
	}
	je.StepExecutions = steps
	return je, nil
}

// SaveStepExecution inserts a new StepExecution.
func (r *SQLJobRepository) SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(fromDomainStepExecution(stepExecution)).Error; err != nil {
		return exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to save StepExecution %s", stepExecution.ID), err, false, false)
	}
	return nil
}

// UpdateStepExecution overwrites every column of an existing StepExecution.
func (r *SQLJobRepository) UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	entity := fromDomainStepExecution(stepExecution)
	if err := updateAll(db, &StepExecutionEntity{}, entity.ID, entity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("StepExecution with ID %s not found for update: %w", stepExecution.ID, repository.ErrStepExecutionNotFound)
		}
		return exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to update StepExecution %s", stepExecution.ID), err, false, false)
	}
	return nil
}

// FindStepExecutionByID loads a single StepExecution without its JobExecution.
func (r *SQLJobRepository) FindStepExecutionByID(ctx context.Context, executionID string) (*model.StepExecution, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var entity StepExecutionEntity
	if err := db.Where("id = ?", executionID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStepExecutionNotFound
		}
		return nil, exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to find StepExecution %s", executionID), err, false, false)
	}
	return toDomainStepExecution(&entity), nil
}

// FindStepExecutionsByJobExecutionID returns the runs of a job execution in start order.
func (r *SQLJobRepository) FindStepExecutionsByJobExecutionID(ctx context.Context, jobExecutionID string) ([]*model.StepExecution, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var entities []StepExecutionEntity
	if err := db.Where("job_execution_id = ?", jobExecutionID).Order("start_time ASC").Find(&entities).Error; err != nil {
		return nil, exception.NewBatchError("SQLJobRepository", fmt.Sprintf("Failed to find StepExecutions of %s", jobExecutionID), err, false, false)
	}
	steps := make([]*model.StepExecution, 0, len(entities))
	for i := range entities {
		steps = append(steps, toDomainStepExecution(&entities[i]))
	}
	return steps, nil
}

// Close releases nothing; connections belong to the resolver.
func (r *SQLJobRepository) Close() error {
	return nil
}

// updateAll writes all columns of values to the row with the given id, including zero values.
// Some drivers report zero affected rows when nothing changed, so a miss is confirmed with a count.
func updateAll(db *gorm.DB, model interface{}, id string, values interface{}) error {
	result := db.Model(model).Where("id = ?", id).Select("*").Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var _ repository.JobRepository = (*SQLJobRepository)(nil)
