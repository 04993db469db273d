package gorm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// NewGormLogger maps a configured level name onto a gorm logger that writes through the batch logger.
func NewGormLogger(level string) gormlogger.Interface {
	var gormLevel gormlogger.LogLevel
	switch strings.ToLower(level) {
	case "error":
		gormLevel = gormlogger.Error
	case "warn":
		gormLevel = gormlogger.Warn
	case "info":
		gormLevel = gormlogger.Info
	default:
		gormLevel = gormlogger.Silent
	}
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// gormWriter sends SQL traces to DEBUG and everything else gorm prints to WARN.
type gormWriter struct{}

func (gormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	upper := strings.ToUpper(msg)
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.Contains(upper, verb) {
			logger.Debugf("[GORM] %s", msg)
			return
		}
	}
	logger.Warnf("[GORM] %s", msg)
}

// GormDBAdapter implements database.DBConnection over a *gorm.DB.
type GormDBAdapter struct {
	db   *gorm.DB
	cfg  dbconfig.DatabaseConfig
	name string
}

// NewGormDBAdapter wraps db as the connection named name.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) *GormDBAdapter {
	return &GormDBAdapter{db: db, cfg: cfg, name: name}
}

// GormDB returns the underlying *gorm.DB.
func (a *GormDBAdapter) GormDB() *gorm.DB { return a.db }

// Config returns the connection configuration.
func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig { return a.cfg }

func (a *GormDBAdapter) Type() string { return a.cfg.Type }
func (a *GormDBAdapter) Name() string { return a.name }

// Ping checks the underlying connection pool.
func (a *GormDBAdapter) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("connection '%s': %w", a.name, err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (a *GormDBAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	logger.Infof("Closing database connection '%s'...", a.name)
	return sqlDB.Close()
}

var _ database.DBConnection = (*GormDBAdapter)(nil)
