package gcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/gcs"
)

func TestNewGCSAdapter(t *testing.T) {
	_, err := gcs.NewGCSAdapter(storageConfig.StorageConfig{Type: "gcs"}, "archive")
	assert.Error(t, err, "bucket_name is required")

	conn, err := gcs.NewGCSAdapter(storageConfig.StorageConfig{Type: "gcs", BucketName: "trajectories"}, "archive")
	require.NoError(t, err)
	assert.Equal(t, "gcs", conn.Type())
	assert.Equal(t, "archive", conn.Name())
	// No client has been created yet.
	assert.NoError(t, conn.Close())
}
