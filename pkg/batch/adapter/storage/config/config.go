package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // Type of storage ("local", "s3", "gcs").
	BucketName      string `yaml:"bucket_name"`      // Default bucket name for operations.
	CredentialsFile string `yaml:"credentials_file"` // Service account key for GCS.
	BaseDir         string `yaml:"base_dir"`         // Base directory for local file system operations.
	Endpoint        string `yaml:"endpoint"`         // host:port of an S3-compatible endpoint.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// Decode converts a raw configuration map (as read from YAML) into a StorageConfig.
func Decode(raw interface{}) (StorageConfig, error) {
	var cfg StorageConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to create storage config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode storage config: %w", err)
	}
	return cfg, nil
}

// Lookup finds and decodes the named entry of a storage configuration map.
func Lookup(configs map[string]interface{}, name string) (StorageConfig, error) {
	raw, ok := configs[name]
	if !ok {
		return StorageConfig{}, fmt.Errorf("storage configuration for name '%s' not found", name)
	}
	cfg, err := Decode(raw)
	if err != nil {
		return cfg, fmt.Errorf("storage '%s': %w", name, err)
	}
	return cfg, nil
}
