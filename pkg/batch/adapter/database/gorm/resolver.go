package gorm

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/trajbatch/pkg/batch/core/adapter"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// GormDBConnectionResolver resolves named connections through the provider of their type.
type GormDBConnectionResolver struct {
	dbProviders map[string]database.DBProvider
	configs     map[string]interface{}
}

// ResolverParams defines the dependencies for NewGormDBConnectionResolver.
type ResolverParams struct {
	fx.In
	DBProviders []database.DBProvider `group:"db_providers"`
	Cfg         *config.Config
}

// NewGormDBConnectionResolver creates a resolver over all registered providers.
func NewGormDBConnectionResolver(p ResolverParams) *GormDBConnectionResolver {
	providerMap := make(map[string]database.DBProvider, len(p.DBProviders))
	for _, provider := range p.DBProviders {
		providerMap[provider.Type()] = provider
	}
	return &GormDBConnectionResolver{dbProviders: providerMap, configs: p.Cfg.Trajbatch.AdapterConfigs}
}

// ResolveConnection implements coreAdapter.ResourceConnectionResolver.
func (r *GormDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveDBConnection(ctx, name)
}

// ResolveDBConnection returns the named connection, reconnecting once if it no longer answers a ping.
func (r *GormDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	dbConfig, err := dbconfig.Lookup(r.configs, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.dbProviders[dbConfig.Type]
	if !ok {
		return nil, fmt.Errorf("no DBProvider registered for type '%s' (connection '%s')", dbConfig.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection '%s': %w", name, err)
	}
	if pingErr := conn.Ping(ctx); pingErr != nil {
		logger.Warnf("Connection '%s' is invalid (%v). Attempting to reconnect.", name, pingErr)
		conn, err = provider.ForceReconnect(name)
		if err != nil {
			return nil, fmt.Errorf("failed to reconnect connection '%s': %w", name, err)
		}
	}
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *GormDBConnectionResolver) CloseAll() error {
	var lastErr error
	for t, p := range r.dbProviders {
		if err := p.CloseAll(); err != nil {
			logger.Warnf("Failed to close database connections of type '%s': %v", t, err)
			lastErr = err
		}
	}
	return lastErr
}

var _ database.DBConnectionResolver = (*GormDBConnectionResolver)(nil)
