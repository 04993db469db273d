// Package gcs archives run artifacts to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ProviderType is the storage type handled by this package.
const ProviderType = "gcs"

type gcsAdapter struct {
	cfg  storageConfig.StorageConfig
	name string

	mu     sync.Mutex
	client *storage.Client
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// NewGCSAdapter returns a connection whose client is created on first use,
// so that credentials are only required when something is archived.
func NewGCSAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage '%s': bucket_name must be specified", name)
	}
	return &gcsAdapter{cfg: cfg, name: name}, nil
}

func (a *gcsAdapter) getClient(ctx context.Context) (*storage.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	var opts []option.ClientOption
	if a.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.cfg.CredentialsFile))
	}
	if a.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.cfg.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage '%s': failed to create client: %w", a.name, err)
	}
	a.client = client
	logger.Debugf("Created GCS client for storage '%s'.", a.name)
	return client, nil
}

func (a *gcsAdapter) bucketHandle(ctx context.Context, bucket string) (*storage.BucketHandle, string, error) {
	client, err := a.getClient(ctx)
	if err != nil {
		return nil, "", err
	}
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	return client.Bucket(bucket), bucket, nil
}

// Close releases the client if one was created.
func (a *gcsAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *gcsAdapter) Type() string { return ProviderType }
func (a *gcsAdapter) Name() string { return a.name }

// Upload writes data to the object. The object is committed when the writer is closed.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	bh, b, err := a.bucketHandle(ctx, bucket)
	if err != nil {
		return err
	}
	w := bh.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload 'gs://%s/%s': %w", b, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize 'gs://%s/%s': %w", b, objectName, err)
	}
	logger.Debugf("Uploaded 'gs://%s/%s'.", b, objectName)
	return nil
}

// NewProvider creates the provider for "gcs" storage connections.
func NewProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return storageAdapter.NewCachingProvider(ProviderType, cfg.Trajbatch.StorageConfigs, NewGCSAdapter)
}
