package mysql

import (
	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
)

// Module registers the mysql DBProvider in the database provider group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewProvider,
		fx.ResultTags(database.DBProviderGroup),
	)),
)
