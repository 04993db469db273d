package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/internal/app"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// embeddedConfig is the default configuration compiled into the binary.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// adapterOptions selects the database and storage providers registered with fx.
// TRAJBATCH_DB_ADAPTERS and TRAJBATCH_STORAGE_ADAPTERS take comma separated names;
// all known adapters are registered when they are unset.
func adapterOptions() ([]fx.Option, error) {
	dbAdapters := os.Getenv("TRAJBATCH_DB_ADAPTERS")
	if dbAdapters == "" {
		dbAdapters = app.DefaultDBAdapters
	}
	storageAdapters := os.Getenv("TRAJBATCH_STORAGE_ADAPTERS")
	if storageAdapters == "" {
		storageAdapters = app.DefaultStorageAdapters
	}

	dbOptions, err := app.AdapterOptions(dbAdapters, app.DBProviderMap)
	if err != nil {
		return nil, fmt.Errorf("TRAJBATCH_DB_ADAPTERS: %w", err)
	}
	storageOptions, err := app.AdapterOptions(storageAdapters, app.StorageProviderMap)
	if err != nil {
		return nil, fmt.Errorf("TRAJBATCH_STORAGE_ADAPTERS: %w", err)
	}
	logger.Debugf("Database adapters: %s; storage adapters: %s", dbAdapters, storageAdapters)
	return append(dbOptions, storageOptions...), nil
}

func main() {
	configFile := flag.String("config", "", "YAML configuration file replacing the embedded one")
	showLast := flag.Bool("last", false, "print the last recorded execution of the job and exit")
	flag.Parse()

	if *configFile != "" {
		if err := os.Setenv(config.ConfigFileEnvVar, *configFile); err != nil {
			logger.Errorf("Failed to set %s: %v", config.ConfigFileEnvVar, err)
			os.Exit(app.ExitCodeFailed)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping the job before the next invocation...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	options, err := adapterOptions()
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(app.ExitCodeFailed)
	}

	mode := app.ModeRun
	if *showLast {
		mode = app.ModeShowLast
	}

	code := app.RunApplication(ctx, envFilePath, embeddedConfig, mode, options)
	cancel()
	os.Exit(code)
}
