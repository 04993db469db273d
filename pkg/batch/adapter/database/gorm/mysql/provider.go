// Package mysql registers the MySQL dialector and its DBProvider.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// ProviderType is the database type handled by this package.
const ProviderType = "mysql"

func init() {
	gormadapter.RegisterDialector(ProviderType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString returns a DSN of the form user:password@tcp(host:port)/dbname?params.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	auth := c.User
	if c.Password != "" {
		auth += ":" + c.Password
	}
	if auth != "" {
		auth += "@"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", auth, c.Host, port, c.Database)
}

// NewProvider creates the DBProvider for MySQL.
func NewProvider(cfg *config.Config) database.DBProvider {
	return gormadapter.NewBaseProvider(cfg, ProviderType)
}
