// Package database defines the connection abstractions for relational databases used by
// the SQL job repository.
package database

import (
	"context"

	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/trajbatch/pkg/batch/core/adapter"
)

// DBConnection is an open, named database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection

	// GormDB returns the session bound to this connection.
	GormDB() *gorm.DB
	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error
	// Config returns the configuration the connection was opened with.
	Config() dbconfig.DatabaseConfig
}

// DBProvider opens and caches connections of a single database type.
type DBProvider interface {
	GetConnection(name string) (DBConnection, error)
	// ForceReconnect closes the named connection, if open, and opens it again.
	ForceReconnect(name string) (DBConnection, error)
	CloseAll() error
	Type() string
}

// DBConnectionResolver resolves named connections across all registered providers.
type DBConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProviderGroup is the fx value group of all DBProvider implementations.
const DBProviderGroup = `group:"db_providers"`
