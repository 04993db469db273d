// Package postgres registers the PostgreSQL dialector and its DBProvider.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// ProviderType is the database type handled by this package.
const ProviderType = "postgres"

func init() {
	gormadapter.RegisterDialector(ProviderType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns the key/value DSN understood by gorm.io/driver/postgres.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// NewProvider creates the DBProvider for PostgreSQL.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, ProviderType)
}
