package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	appJob "github.com/tigerroll/trajbatch/internal/job"
	gormAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/process"
	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	usecase "github.com/tigerroll/trajbatch/pkg/batch/core/application/usecase"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/trajbatch/pkg/batch/infrastructure/repository"
	batchlistener "github.com/tigerroll/trajbatch/pkg/batch/listener"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

func TestAdapterOptions(t *testing.T) {
	opts, err := AdapterOptions(" sqlite, ,SQLITE,postgres", DBProviderMap)
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = AdapterOptions("", StorageProviderMap)
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = AdapterOptions("local,ftp", StorageProviderMap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter 'ftp'")
	assert.Contains(t, err.Error(), "gcs, local, s3")
}

func TestApplicationGraph(t *testing.T) {
	dbOpts, err := AdapterOptions(DefaultDBAdapters, DBProviderMap)
	require.NoError(t, err)
	storageOpts, err := AdapterOptions(DefaultStorageAdapters, StorageProviderMap)
	require.NoError(t, err)

	err = fx.ValidateApp(
		fx.Supply(
			config.NewConfig(),
			fx.Annotate(
				context.Background(),
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
			ModeRun,
			newOutcome(),
		),
		fx.Options(dbOpts...),
		fx.Options(storageOpts...),
		logger.Module,
		config.Module,
		metrics.Module,
		gormAdapter.Module,
		storageAdapter.Module,
		process.Module,
		repository.Module,
		usecase.Module,
		batchlistener.Module,
		appJob.Module,
		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags(
			"", "", "", "", "", "", "", "", "", `name:"appCtx"`,
		))),
	)
	require.NoError(t, err)

}
