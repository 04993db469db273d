// Package local provides the Fx module for the local storage adapter.
package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
)

// Module registers the local StorageProvider in the storage provider group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLocalProvider,
		fx.ResultTags(storageAdapter.StorageProviderGroup),
	)),
)
