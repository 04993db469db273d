package gcs

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
)

// Module registers the GCS StorageProvider in the storage provider group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewProvider,
		fx.ResultTags(storageAdapter.StorageProviderGroup),
	)),
)
