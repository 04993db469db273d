// Package local stores archived run artifacts in a directory tree.
// Buckets map to subdirectories of the configured base directory.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ProviderType is the storage type handled by this package.
const ProviderType = "local"

type localAdapter struct {
	cfg     storageConfig.StorageConfig
	name    string
	baseDir string
}

var _ storageAdapter.StorageConnection = (*localAdapter)(nil)

// NewLocalAdapter creates the base directory if needed and returns a connection rooted there.
func NewLocalAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage adapter '%s': base_dir must be specified", name)
	}
	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("local storage adapter '%s': %w", name, err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage adapter '%s': failed to create base_dir '%s': %w", name, baseDir, err)
	}
	return &localAdapter{cfg: cfg, name: name, baseDir: baseDir}, nil
}

func (a *localAdapter) Close() error { return nil }
func (a *localAdapter) Type() string { return ProviderType }
func (a *localAdapter) Name() string { return a.name }

// Upload writes data to <base_dir>/<bucket>/<objectName>, creating parent directories.
func (a *localAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", fullPath, err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", fullPath, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file '%s': %w", fullPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file '%s': %w", fullPath, err)
	}
	logger.Debugf("Stored '%s' (local storage '%s').", fullPath, a.name)
	return nil
}

// resolvePath joins bucket (or the configured default) and objectName under the base
// directory and rejects paths that escape it.
func (a *localAdapter) resolvePath(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	fullPath := filepath.Join(a.baseDir, bucket, objectName)
	if fullPath != a.baseDir && !strings.HasPrefix(fullPath, a.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("resolved path '%s' is outside of base_dir '%s'", fullPath, a.baseDir)
	}
	return fullPath, nil
}

// NewLocalProvider creates the provider for "local" storage connections.
func NewLocalProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return storageAdapter.NewCachingProvider(ProviderType, cfg.Trajbatch.StorageConfigs, NewLocalAdapter)
}
