package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	coreAdapter "github.com/tigerroll/trajbatch/pkg/batch/core/adapter"
	coreConfig "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ConnectionResolver resolves named storage connections through the provider registered for their type.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	configs   map[string]interface{}
}

// ResolverParams defines the dependencies for NewConnectionResolver.
type ResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Cfg       *coreConfig.Config
}

// NewConnectionResolver creates a resolver over all registered providers.
func NewConnectionResolver(p ResolverParams) *ConnectionResolver {
	return NewConnectionResolverFor(p.Cfg.Trajbatch.StorageConfigs, p.Providers...)
}

// NewConnectionResolverFor creates a resolver from an explicit configuration map and providers.
func NewConnectionResolverFor(configs map[string]interface{}, providers ...StorageProvider) *ConnectionResolver {
	m := make(map[string]StorageProvider, len(providers))
	for _, p := range providers {
		m[p.Type()] = p
	}
	return &ConnectionResolver{providers: m, configs: configs}
}

// ResolveConnection implements coreAdapter.ResourceConnectionResolver.
func (r *ConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveStorageConnection(ctx, name)
}

// ResolveStorageConnection returns the connection named name.
func (r *ConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error) {
	cfg, err := storageConfig.Lookup(r.configs, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", cfg.Type, name)
	}
	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, cfg.Type, err)
	}
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *ConnectionResolver) CloseAll() error {
	var lastErr error
	for t, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			logger.Warnf("Failed to close storage connections of type '%s': %v", t, err)
			lastErr = err
		}
	}
	return lastErr
}

var _ coreAdapter.ResourceConnectionResolver = (*ConnectionResolver)(nil)
