// Package repository selects the JobRepository implementation from configuration.
package repository

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	repository "github.com/tigerroll/trajbatch/pkg/batch/core/domain/repository"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/inmemory"
	sqlrepo "github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository/sql"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// NewJobRepository returns the repository named by infrastructure.job_repository.
// The SQL repository migrates its schema before it is handed out.
func NewJobRepository(lc fx.Lifecycle, cfg *config.Config, resolver database.DBConnectionResolver) (repository.JobRepository, error) {
	var repo repository.JobRepository
	switch cfg.Trajbatch.Infrastructure.JobRepository {
	case config.JobRepositorySQL:
		sqlRepo := sqlrepo.NewSQLJobRepository(resolver, cfg.Trajbatch.Infrastructure.JobRepositoryDBRef)
		if err := sqlRepo.Migrate(context.Background()); err != nil {
			return nil, err
		}
		repo = sqlRepo
		logger.Infof("Using SQL job repository on connection '%s'.", cfg.Trajbatch.Infrastructure.JobRepositoryDBRef)
	default:
		repo = inmemory.NewInMemoryJobRepository()
		logger.Debugf("Using in-memory job repository.")
	}
	lc.Append(fx.StopHook(repo.Close))
	return repo, nil
}

// Module provides the configured repository.JobRepository.
var Module = fx.Options(
	fx.Provide(NewJobRepository),
)
