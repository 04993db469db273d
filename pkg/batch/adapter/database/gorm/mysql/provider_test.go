package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbconfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/database/config"
)

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  dbconfig.DatabaseConfig
		want string
	}{
		{
			name: "with credentials",
			cfg:  dbconfig.DatabaseConfig{Host: "db", Port: 3307, User: "batch", Password: "pw", Database: "meta"},
			want: "batch:pw@tcp(db:3307)/meta?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "default port without password",
			cfg:  dbconfig.DatabaseConfig{Host: "db", User: "batch", Database: "meta"},
			want: "batch@tcp(db:3306)/meta?charset=utf8mb4&parseTime=True&loc=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnectionString(tt.cfg))
		})
	}
}
