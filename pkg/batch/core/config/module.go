package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Trajbatch.System.Logging
}

// Module provides the sub-configurations of the supplied *Config.
var Module = fx.Options(
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(func(cfg *Config) *BatchConfig { return &cfg.Trajbatch.Batch }),
	fx.Provide(func(cfg *Config) *ModelConfig { return &cfg.Trajbatch.Model }),
)
