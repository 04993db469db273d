package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

const moduleName = "config"

// ConfigFileEnvVar names an external YAML file that replaces the embedded configuration.
const ConfigFileEnvVar = "TRAJBATCH_CONFIG_FILE"

// LoadConfig builds the configuration in this order:
//  1. defaults from NewConfig
//  2. .env file (envFilePath, or ./.env when empty) loaded into the process environment
//  3. YAML from the file named by TRAJBATCH_CONFIG_FILE, or the embedded bytes, with ${VAR} expanded
//  4. environment variables derived from yaml tags (TRAJBATCH_MODEL_BINARY_PATH, ...)
//
// The result is validated before it is returned.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	source := []byte(embeddedConfig)
	if path := os.Getenv(ConfigFileEnvVar); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to read config file '%s'", path), err, false, false)
		}
		logger.Infof("Using configuration file '%s'.", path)
		source = data
	}

	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}
	if err := cfg.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false, false)
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of the defaults. ${VAR} and $VAR placeholders
// are expanded from the environment before decoding.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewConfig()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal config", err, false, false)
	}
	return cfg, nil
}

// loadStructFromEnv walks val and overrides fields whose environment variable is set.
// Names are built from the upper-cased yaml tags joined by "_".
// Map fields are left to YAML.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch field.Kind() {
		case reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case reflect.Map, reflect.Slice, reflect.Interface:
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField converts value to the field's kind and assigns it.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
