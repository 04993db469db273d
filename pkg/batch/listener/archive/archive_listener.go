// Package archive uploads run artifacts to a storage connection after each run.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	storageAdapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/storage"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/core/metrics"
	logger "github.com/tigerroll/trajbatch/pkg/batch/support/util/logger"
)

// ArtifactKeys are the StepExecution context entries holding the files to archive.
var ArtifactKeys = []string{model.ContextKeyLogFile, model.ContextKeyControlFile}

// StorageResolver resolves named storage connections.
type StorageResolver interface {
	ResolveStorageConnection(ctx context.Context, name string) (storageAdapter.StorageConnection, error)
}

// StepListener uploads the artifacts of a finished run to
// <bucket>/<prefix>/<job execution id>/<run name>/<file name>.
// Upload failures are logged and do not change the run status.
type StepListener struct {
	resolver StorageResolver
	cfg      config.ArchiveConfig
	recorder metrics.MetricRecorder
}

// NewStepListener creates the listener for the storage connection named by cfg.StorageRef.
func NewStepListener(resolver StorageResolver, cfg config.ArchiveConfig, recorder metrics.MetricRecorder) *StepListener {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &StepListener{resolver: resolver, cfg: cfg, recorder: recorder}
}

func (l *StepListener) BeforeStep(ctx context.Context, stepExecution *model.StepExecution) {}

// AfterStep archives the artifacts even when the run was stopped.
func (l *StepListener) AfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		l.recorder.RecordDuration(ctx, "archive", time.Since(start), map[string]string{"storage": l.cfg.StorageRef})
	}()

	conn, err := l.resolver.ResolveStorageConnection(ctx, l.cfg.StorageRef)
	if err != nil {
		logger.Warnf("ArchiveListener: cannot resolve storage '%s': %v", l.cfg.StorageRef, err)
		return
	}

	for _, key := range ArtifactKeys {
		file, ok := stepExecution.ExecutionContext.GetString(key)
		if !ok {
			continue
		}
		objectName := l.ObjectName(stepExecution, filepath.Base(file))
		if err := upload(ctx, conn, l.cfg.Bucket, objectName, file); err != nil {
			logger.Warnf("ArchiveListener: run '%s': %v", stepExecution.StepName, err)
			continue
		}
		logger.Infof("ArchiveListener: archived '%s' to '%s' (storage '%s').", file, objectName, l.cfg.StorageRef)
	}
}

// ObjectName returns the object name of an artifact of stepExecution.
func (l *StepListener) ObjectName(stepExecution *model.StepExecution, base string) string {
	return path.Join(l.cfg.Prefix, stepExecution.JobExecutionID, stepExecution.StepName, base)
}

func upload(ctx context.Context, conn storageAdapter.StorageConnection, bucket, objectName, file string) error {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open '%s': %w", file, err)
	}
	defer f.Close()
	if err := conn.Upload(ctx, bucket, objectName, f, "text/plain"); err != nil {
		return fmt.Errorf("failed to upload '%s': %w", file, err)
	}
	return nil
}

var _ port.StepExecutionListener = (*StepListener)(nil)
