// Package s3 archives run artifacts to an S3-compatible object store through minio-go.
package s3

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ProviderType is the storage type handled by this package.
const ProviderType = "s3"

type minioAdapter struct {
	client *minio.Client
	cfg    storageConfig.StorageConfig
	name   string
}

var _ storageAdapter.StorageConnection = (*minioAdapter)(nil)

// NewMinioAdapter creates a client for the configured endpoint. No request is made until first use.
func NewMinioAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 storage '%s': endpoint must be specified", name)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage '%s': %w", name, err)
	}
	return NewMinioAdapterWithClient(client, cfg, name), nil
}

// NewMinioAdapterWithClient wraps an existing client.
func NewMinioAdapterWithClient(client *minio.Client, cfg storageConfig.StorageConfig, name string) storageAdapter.StorageConnection {
	return &minioAdapter{client: client, cfg: cfg, name: name}
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func (a *minioAdapter) Close() error { return nil }
func (a *minioAdapter) Type() string { return ProviderType }
func (a *minioAdapter) Name() string { return a.name }

func (a *minioAdapter) bucket(bucket string) string {
	if bucket == "" {
		return a.cfg.BucketName
	}
	return bucket
}

// Upload streams data to the object store. The size is unknown, so minio uses multipart upload.
func (a *minioAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	b := a.bucket(bucket)
	info, err := a.client.PutObject(ctx, b, objectName, data, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload '%s/%s': %w", b, objectName, err)
	}
	logger.Debugf("Uploaded '%s/%s' (%d bytes, s3 storage '%s').", b, objectName, info.Size, a.name)
	return nil
}

// NewProvider creates the provider for "s3" storage connections.
func NewProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return storageAdapter.NewCachingProvider(ProviderType, cfg.Trajbatch.StorageConfigs, NewMinioAdapter)
}
