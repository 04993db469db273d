// Package adapter defines the connection abstractions shared by the database and storage adapters.
package adapter

import (
	"context"
)

// ResourceConnection represents a generic connection to any resource (e.g., database, storage).
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "sqlite", "s3").
	Type() string
	// Name returns the connection name (e.g., "metadata", "archive").
	Name() string
}

// ResourceConnectionResolver resolves a named resource connection.
type ResourceConnectionResolver interface {
	// ResolveConnection resolves a resource connection instance by name.
	ResolveConnection(ctx context.Context, name string) (ResourceConnection, error)
}
