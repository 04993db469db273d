// Package sqlite registers the SQLite dialector and its DBProvider.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// ProviderType is the database type handled by this package.
const ProviderType = "sqlite"

func init() {
	gormadapter.RegisterDialector(ProviderType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns the sqlite DSN, which is the database file path.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return c.Database
}

// NewProvider creates the DBProvider for SQLite.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, ProviderType)
}
