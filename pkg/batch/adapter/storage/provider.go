package storage

import (
	"fmt"
	"sync"

	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ConnectionFactory builds a connection from its decoded configuration.
type ConnectionFactory func(cfg storageConfig.StorageConfig, name string) (StorageConnection, error)

// CachingProvider is a StorageProvider that creates connections on first use and reuses them.
type CachingProvider struct {
	storageType string
	configs     map[string]interface{}
	factory     ConnectionFactory
	connections map[string]StorageConnection
	mu          sync.Mutex
}

// NewCachingProvider creates a provider for storageType whose connections are described in configs.
func NewCachingProvider(storageType string, configs map[string]interface{}, factory ConnectionFactory) *CachingProvider {
	return &CachingProvider{
		storageType: storageType,
		configs:     configs,
		factory:     factory,
		connections: make(map[string]StorageConnection),
	}
}

// Type returns the storage type handled by this provider.
func (p *CachingProvider) Type() string {
	return p.storageType
}

// GetConnection retrieves a connection by name, creating it if needed.
func (p *CachingProvider) GetConnection(name string) (StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	cfg, err := storageConfig.Lookup(p.configs, name)
	if err != nil {
		return nil, err
	}
	if cfg.Type != p.storageType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, p.storageType, cfg.Type)
	}

	conn, err := p.factory(cfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage connection '%s': %w", p.storageType, name, err)
	}
	p.connections[name] = conn
	logger.Debugf("Created new %s storage connection '%s'.", p.storageType, name)
	return conn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *CachingProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			logger.Warnf("Failed to close %s storage connection '%s': %v", p.storageType, name, err)
			lastErr = err
		}
		delete(p.connections, name)
	}
	return lastErr
}

var _ StorageProvider = (*CachingProvider)(nil)
