package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string `yaml:"type"`     // "postgres", "mysql" or "sqlite".
	Host     string `yaml:"host"`     // Database host address.
	Port     int    `yaml:"port"`     // Database port number.
	Database string `yaml:"database"` // Database name, or the file path for sqlite.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Sslmode  string `yaml:"sslmode"`
	// LogLevel is the gorm log level: "silent" (default), "error", "warn" or "info".
	LogLevel string     `yaml:"log_level"`
	Pool     PoolConfig `yaml:"pool"`
}

// Lookup finds and decodes the named entry of a database configuration map.
func Lookup(configs map[string]interface{}, name string) (DatabaseConfig, error) {
	var cfg DatabaseConfig
	raw, ok := configs[name]
	if !ok {
		return cfg, fmt.Errorf("database configuration '%s' not found", name)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return cfg, nil
}
