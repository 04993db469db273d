// Package storage defines the common interfaces for storage adapters.
// Run artifacts are archived through these interfaces to a local directory,
// an S3-compatible object store, or Google Cloud Storage.
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/tigerroll/trajbatch/pkg/batch/core/adapter"
)

// StorageProviderGroup is the fx value group collecting all StorageProviders.
const StorageProviderGroup = `group:"storage_providers"`

// StorageExecutor stores run artifacts.
type StorageExecutor interface {
	// Upload uploads data to the specified bucket and object name.
	// 'data' is the stream of data to upload. 'contentType' is the MIME type of the data.
	// An empty bucket selects the connection's configured bucket.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
}

// StorageConnection represents a named storage connection.
type StorageConnection interface {
	coreAdapter.ResourceConnection
	StorageExecutor
}

// StorageProvider creates and caches connections of one storage type.
type StorageProvider interface {
	// GetConnection retrieves a StorageConnection with the specified name.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the storage type handled by this provider (e.g., "local", "s3", "gcs").
	Type() string
}
