package gorm

import (
	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
)

// Module provides the DBConnectionResolver. Concrete providers come from the dialect packages.
var Module = fx.Options(
	fx.Provide(NewGormDBConnectionResolver),
	fx.Provide(func(r *GormDBConnectionResolver) database.DBConnectionResolver { return r }),
	fx.Invoke(func(lc fx.Lifecycle, r *GormDBConnectionResolver) {
		lc.Append(fx.StopHook(r.CloseAll))
	}),
)
