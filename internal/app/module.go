package app

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/fx"

	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/gcs"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/s3"
)

// DBProviderMap maps a database adapter name to the module registering its DBProvider.
var DBProviderMap = map[string]fx.Option{
	sqlite.ProviderType:   sqlite.Module,
	postgres.ProviderType: postgres.Module,
	mysql.ProviderType:    mysql.Module,
}

// StorageProviderMap maps a storage adapter name to the module registering its StorageProvider.
var StorageProviderMap = map[string]fx.Option{
	local.ProviderType: local.Module,
	s3.ProviderType:    s3.Module,
	gcs.ProviderType:   gcs.Module,
}

// DefaultDBAdapters and DefaultStorageAdapters are used when no selection is given.
const (
	DefaultDBAdapters      = "sqlite,postgres,mysql"
	DefaultStorageAdapters = "local,s3,gcs"
)

// AdapterOptions turns comma separated adapter names into fx options.
// Unknown names are rejected; blanks and duplicates are ignored.
func AdapterOptions(names string, available map[string]fx.Option) ([]fx.Option, error) {
	var opts []fx.Option
	seen := make(map[string]bool)
	for _, name := range strings.Split(names, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		opt, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown adapter '%s' (available: %s)", name, strings.Join(adapterNames(available), ", "))
		}
		seen[name] = true
		opts = append(opts, opt)
	}
	return opts, nil
}

func adapterNames(available map[string]fx.Option) []string {
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
