package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	"github.com/tigerroll/trajbatch/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/listener/archive"
)

func newResolver(t *testing.T, baseDir string) *storageAdapter.ConnectionResolver {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Trajbatch.StorageConfigs = map[string]interface{}{
		"archive": map[string]interface{}{"type": "local", "base_dir": baseDir, "bucket_name": "logs"},
	}
	return storageAdapter.NewConnectionResolverFor(cfg.Trajbatch.StorageConfigs, local.NewLocalProvider(cfg))
}

func finishedRun(t *testing.T, runDir string) *model.StepExecution {
	t.Helper()
	je := model.NewJobExecution("testJob", model.NewJobParameters())
	se := model.NewStepExecution(je, "site_a")
	logFile := filepath.Join(runDir, "run.log")
	require.NoError(t, os.WriteFile(logFile, []byte("model output\n"), 0o644))
	se.ExecutionContext.Put(model.ContextKeyLogFile, logFile)
	se.ExecutionContext.Put(model.ContextKeyControlFile, filepath.Join(runDir, "CONTROL"))
	return se
}

func TestStepListener_UploadsArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	runDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "CONTROL"), []byte("14 10 15 06"), 0o644))
	se := finishedRun(t, runDir)

	l := archive.NewStepListener(newResolver(t, baseDir), config.ArchiveConfig{StorageRef: "archive", Prefix: "trajectories"}, nil)
	l.BeforeStep(context.Background(), se)
	l.AfterStep(context.Background(), se)

	got, err := os.ReadFile(filepath.Join(baseDir, "logs", "trajectories", se.JobExecutionID, "site_a", "run.log"))
	require.NoError(t, err)
	assert.Equal(t, "model output\n", string(got))
	assert.FileExists(t, filepath.Join(baseDir, "logs", "trajectories", se.JobExecutionID, "site_a", "CONTROL"))
}

func TestStepListener_SkipsMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	se := finishedRun(t, t.TempDir())
	resolver := newResolver(t, baseDir)

	l := archive.NewStepListener(resolver, config.ArchiveConfig{StorageRef: "archive"}, nil)
	l.AfterStep(context.Background(), se)

	stepDir := filepath.Join(baseDir, "logs", se.JobExecutionID, "site_a")
	entries, err := os.ReadDir(stepDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run.log", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(stepDir, "run.log"))
	require.NoError(t, err)
	assert.Equal(t, "model output\n", string(data))
}

func TestStepListener_UnknownStorageDoesNotPanic(t *testing.T) {
	se := finishedRun(t, t.TempDir())
	l := archive.NewStepListener(newResolver(t, t.TempDir()), config.ArchiveConfig{StorageRef: "missing"}, nil)
	assert.NotPanics(t, func() { l.AfterStep(context.Background(), se) })
}

func TestStepListener_ObjectName(t *testing.T) {
	je := model.NewJobExecution("testJob", model.NewJobParameters())
	se := model.NewStepExecution(je, "site_a")

	l := archive.NewStepListener(nil, config.ArchiveConfig{Prefix: "p"}, nil)
	assert.Equal(t, "p/"+je.ID+"/site_a/run.log", l.ObjectName(se, "run.log"))

	l = archive.NewStepListener(nil, config.ArchiveConfig{}, nil)
	assert.Equal(t, je.ID+"/site_a/run.log", l.ObjectName(se, "run.log"))
}
