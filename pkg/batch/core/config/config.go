// Package config holds the trajbatch configuration structures, their defaults,
// and the loader that layers YAML, .env, and environment variables.
package config

import (
	"fmt"
	"strings"
)

// EmbeddedConfig holds the content of the configuration file compiled into the binary.
type EmbeddedConfig []byte

// Week schemes accepted by ModelConfig.WeekScheme.
const (
	WeekSchemeMonday     = "monday"
	WeekSchemeDayOfMonth = "day_of_month"
)

// Grid count modes accepted by ModelConfig.GridCountMode.
const (
	GridCountWeeks = "weeks"
	GridCountFiles = "files"
)

// Job repository kinds accepted by InfrastructureConfig.JobRepository.
const (
	JobRepositoryInMemory = "inmemory"
	JobRepositorySQL      = "sql"
)

// BatchConfig controls the run driver.
type BatchConfig struct {
	// JobName labels the job execution in logs, metrics and the job repository.
	JobName string `yaml:"job_name"`
	// RunsFile is the path of the input table (one run per row).
	RunsFile string `yaml:"runs_file"`
	// OutputRoot is the base directory for relative run output folders.
	OutputRoot string `yaml:"output_root"`
	// LogFileName is the per-run log created in each run directory.
	LogFileName string `yaml:"log_file_name"`
	// FailFast stops the whole batch at the first failed run.
	FailFast bool `yaml:"fail_fast"`
	// AbortRunOnInvocationFailure ends a run at its first failed model invocation.
	AbortRunOnInvocationFailure bool `yaml:"abort_run_on_invocation_failure"`
}

// ModelConfig describes the external trajectory binary and its inputs.
type ModelConfig struct {
	// BinaryPath is the model executable; it is run without arguments.
	BinaryPath string `yaml:"binary_path"`
	// MeteoDir is the directory of the meteorological archive written into CONTROL.
	MeteoDir string `yaml:"meteo_dir"`
	// MeteoFilePrefix is the archive file prefix (e.g., "gdas1").
	MeteoFilePrefix string `yaml:"meteo_file_prefix"`
	// BoundaryDir is the land use / roughness directory written into ASCDATA.CFG.
	BoundaryDir string `yaml:"boundary_dir"`
	// WeekScheme selects the week-of-month bucketing used for meteo file names.
	WeekScheme string `yaml:"week_scheme"`
	// GridCountMode selects what the grid count line of CONTROL holds.
	GridCountMode string `yaml:"grid_count_mode"`
	// InvocationTimeoutSeconds bounds one invocation; 0 means no timeout.
	InvocationTimeoutSeconds int `yaml:"invocation_timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds process-wide settings.
type SystemConfig struct {
	// Timezone is used for timestamps in job reports.
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig selects infrastructure implementations.
type InfrastructureConfig struct {
	// JobRepository is "inmemory" or "sql".
	JobRepository string `yaml:"job_repository"`
	// JobRepositoryDBRef names the database connection used by the sql job repository.
	JobRepositoryDBRef string `yaml:"job_repository_db_ref"`
}

// MetricsConfig controls the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// TextfilePath, when set, receives the registry in text format at job end.
	TextfilePath string `yaml:"textfile_path"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	// OTLPEndpoint is the host:port of an OTLP/HTTP collector. Empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// ArchiveConfig controls upload of run logs after each run.
type ArchiveConfig struct {
	// StorageRef names an entry of TrajbatchConfig.StorageConfigs. Empty disables archiving.
	StorageRef string `yaml:"storage_ref"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
}

// TrajbatchConfig holds everything under the "trajbatch" top-level key.
type TrajbatchConfig struct {
	Batch          BatchConfig          `yaml:"batch"`
	Model          ModelConfig          `yaml:"model"`
	System         SystemConfig         `yaml:"system"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Archive        ArchiveConfig        `yaml:"archive"`
	// AdapterConfigs holds named database connections, decoded by the gorm provider.
	AdapterConfigs map[string]interface{} `yaml:"database"`
	// StorageConfigs holds named storage connections, decoded by the storage providers.
	StorageConfigs map[string]interface{} `yaml:"storage"`
}

// Config is the root structure for the application configuration.
type Config struct {
	Trajbatch TrajbatchConfig `yaml:"trajbatch"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Trajbatch: TrajbatchConfig{
			Batch: BatchConfig{
				JobName:     "dailyTrajectoryJob",
				RunsFile:    "runs.csv",
				OutputRoot:  ".",
				LogFileName: "run.log",
			},
			Model: ModelConfig{
				BinaryPath:      "hyts_std",
				MeteoDir:        "meteo/",
				MeteoFilePrefix: "gdas1",
				BoundaryDir:     "bdyfiles/",
				WeekScheme:      WeekSchemeMonday,
				GridCountMode:   GridCountWeeks,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Infrastructure: InfrastructureConfig{
				JobRepository:      JobRepositoryInMemory,
				JobRepositoryDBRef: "metadata",
			},
			Tracing: TracingConfig{
				ServiceName: "trajbatch",
			},
			AdapterConfigs: map[string]interface{}{},
			StorageConfigs: map[string]interface{}{},
		},
	}
}

// Validate checks the settings the run driver cannot work without.
func (c *Config) Validate() error {
	b := c.Trajbatch.Batch
	m := c.Trajbatch.Model
	if strings.TrimSpace(b.RunsFile) == "" {
		return fmt.Errorf("batch.runs_file is required")
	}
	if strings.TrimSpace(b.LogFileName) == "" {
		return fmt.Errorf("batch.log_file_name is required")
	}
	if strings.TrimSpace(m.BinaryPath) == "" {
		return fmt.Errorf("model.binary_path is required")
	}
	switch m.WeekScheme {
	case WeekSchemeMonday, WeekSchemeDayOfMonth:
	default:
		return fmt.Errorf("model.week_scheme must be %q or %q, got %q", WeekSchemeMonday, WeekSchemeDayOfMonth, m.WeekScheme)
	}
	switch m.GridCountMode {
	case GridCountWeeks, GridCountFiles:
	default:
		return fmt.Errorf("model.grid_count_mode must be %q or %q, got %q", GridCountWeeks, GridCountFiles, m.GridCountMode)
	}
	if m.InvocationTimeoutSeconds < 0 {
		return fmt.Errorf("model.invocation_timeout_seconds must not be negative")
	}
	switch c.Trajbatch.Infrastructure.JobRepository {
	case JobRepositoryInMemory, JobRepositorySQL:
	default:
		return fmt.Errorf("infrastructure.job_repository must be %q or %q, got %q",
			JobRepositoryInMemory, JobRepositorySQL, c.Trajbatch.Infrastructure.JobRepository)
	}
	if ref := c.Trajbatch.Archive.StorageRef; ref != "" {
		if _, ok := c.Trajbatch.StorageConfigs[ref]; !ok {
			return fmt.Errorf("archive.storage_ref %q has no entry under storage", ref)
		}
	}
	return nil
}
