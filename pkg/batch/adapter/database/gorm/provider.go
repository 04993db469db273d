// Package gorm opens database connections through gorm. Dialect packages register a
// DialectorFactory for their type from init.
package gorm

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory registered for dbType.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// Open opens a gorm session for cfg and applies its pool settings.
func Open(cfg dbconfig.DatabaseConfig) (*gorm.DB, error) {
	factory, err := GetDialectorFactory(cfg.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", cfg.Type, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(cfg.LogLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

// BaseProvider opens and caches connections of one database type.
type BaseProvider struct {
	cfg         *config.Config
	dbType      string
	connections map[string]database.DBConnection
	mu          sync.RWMutex
}

// NewBaseProvider creates a provider for dbType over the configured database entries.
func NewBaseProvider(cfg *config.Config, dbType string) *BaseProvider {
	return &BaseProvider{
		cfg:         cfg,
		dbType:      dbType,
		connections: make(map[string]database.DBConnection),
	}
}

// Type returns the database type.
func (p *BaseProvider) Type() string {
	return p.dbType
}

// GetConnection retrieves an existing connection or establishes a new one.
func (p *BaseProvider) GetConnection(name string) (database.DBConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}
	return p.createAndStoreConnection(name)
}

func (p *BaseProvider) createAndStoreConnection(name string) (database.DBConnection, error) {
	dbConfig, err := dbconfig.Lookup(p.cfg.Trajbatch.AdapterConfigs, name)
	if err != nil {
		return nil, err
	}
	if dbConfig.Type != p.dbType {
		return nil, fmt.Errorf("provider type mismatch: expected '%s', got '%s' for connection '%s'", p.dbType, dbConfig.Type, name)
	}

	db, err := Open(dbConfig)
	if err != nil {
		return nil, err
	}
	conn := NewGormDBAdapter(db, dbConfig, name)
	p.connections[name] = conn
	logger.Infof("Established new DB connection: %s (%s)", name, p.dbType)
	return conn, nil
}

// ForceReconnect closes the named connection, if open, and opens it again.
func (p *BaseProvider) ForceReconnect(name string) (database.DBConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.connections[name]; ok {
		if err := existing.Close(); err != nil {
			logger.Warnf("Failed to close existing connection '%s' before reconnect: %v", name, err)
		}
		delete(p.connections, name)
	}
	conn, err := p.createAndStoreConnection(name)
	if err != nil {
		return nil, err
	}
	logger.Infof("Re-established DB connection: %s (%s)", name, p.dbType)
	return conn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *BaseProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close connection '%s': %v", name, err)
			lastErr = err
		}
		delete(p.connections, name)
	}
	return lastErr
}

var _ database.DBProvider = (*BaseProvider)(nil)
