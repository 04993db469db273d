package tasklet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	runmodel "github.com/tigerroll/trajbatch/internal/domain/model"
	"github.com/tigerroll/trajbatch/internal/hysplit"
	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/trajbatch/pkg/batch/support/util/exception"
	batchtest "github.com/tigerroll/trajbatch/pkg/batch/test"
)

// fakeExecutor records each request together with the CONTROL file present at call time.
type fakeExecutor struct {
	mu       sync.Mutex
	requests []port.CommandRequest
	controls []string
	respond  func(call int) port.CommandOutput
}

func (f *fakeExecutor) Execute(ctx context.Context, req port.CommandRequest) port.CommandOutput {
	f.mu.Lock()
	defer f.mu.Unlock()
	control, _ := os.ReadFile(filepath.Join(req.Dir, hysplit.ControlFileName))
	f.requests = append(f.requests, req)
	f.controls = append(f.controls, string(control))
	call := len(f.requests)
	if f.respond != nil {
		return f.respond(call)
	}
	return port.CommandOutput{Stdout: []byte("out\n"), Stderr: []byte("err\n"), Duration: time.Millisecond}
}

// stems returns the output stem (last CONTROL line) of every recorded call.
func (f *fakeExecutor) stems() []string {
	stems := make([]string, 0, len(f.controls))
	for _, c := range f.controls {
		lines := strings.Split(c, "\n")
		stems = append(stems, lines[len(lines)-1])
	}
	return stems
}

type recordingListener struct {
	results []*model.InvocationResult
}

func (l *recordingListener) AfterInvocation(ctx context.Context, se *model.StepExecution, r *model.InvocationResult) {
	l.results = append(l.results, r)
}

func testConfig(outputRoot string) *config.Config {
	cfg := config.NewConfig()
	cfg.Trajbatch.Batch.OutputRoot = outputRoot
	cfg.Trajbatch.Model.MeteoDir = "/data/gdas"
	cfg.Trajbatch.Model.BoundaryDir = "/opt/hysplit/bdyfiles"
	cfg.Trajbatch.Model.WeekScheme = config.WeekSchemeDayOfMonth
	return cfg
}

func testRun(folder string, days int, hours ...string) *runmodel.RunDescriptor {
	start := time.Date(2014, time.October, 15, 0, 0, 0, 0, time.UTC)
	return &runmodel.RunDescriptor{
		Row:           1,
		OutputFolder:  folder,
		Latitude:      runmodel.Coordinate{Text: "40.0", Value: 40},
		Longitude:     runmodel.Coordinate{Text: "-105.0", Value: -105},
		Height:        runmodel.Coordinate{Text: "500.0", Value: 500},
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, days-1),
		BackwardHours: -72,
		Hours:         hours,
		TopOfModel:    "10000.0",
	}
}

func runTasklet(t *testing.T, ctx context.Context, cfg *config.Config, exec port.CommandExecutor, run *runmodel.RunDescriptor, listeners ...port.InvocationListener) (*model.StepExecution, model.ExitStatus, error) {
	t.Helper()
	f, err := NewFactory(cfg, exec, listeners, nil, nil)
	require.NoError(t, err)
	tl, err := f.New(run)
	require.NoError(t, err)

	se := batchtest.NewStartedStepExecution("testJob", run.OutputFolder)
	exit, execErr := tl.Execute(ctx, se)
	require.NoError(t, tl.Close(ctx))
	return se, exit, execErr
}

func TestTrajectoryTasklet_InvokesEveryDateAndHourInOrder(t *testing.T) {
	root := t.TempDir()
	exec := &fakeExecutor{}
	listener := &recordingListener{}

	se, exit, err := runTasklet(t, context.Background(), testConfig(root), exec, testRun("nested/site_a", 3, "06", "18"), listener)

	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
	assert.Equal(t, 6, se.RenderCount)
	assert.Equal(t, 6, se.InvocationCount)
	assert.Zero(t, se.InvocationFailureCount)
	assert.Equal(t, []string{"14101506", "14101518", "14101606", "14101618", "14101706", "14101718"}, exec.stems())
	assert.Len(t, listener.results, 6)

	runDir := filepath.Join(root, "nested", "site_a")
	for _, req := range exec.requests {
		assert.Equal(t, runDir, req.Dir)
		assert.Empty(t, req.Args)
		assert.Equal(t, "hyts_std", req.Path)
	}
	assert.True(t, strings.HasSuffix(exec.controls[0], "\n"+runDir+"/\n14101506"))

	log, err := os.ReadFile(filepath.Join(runDir, "run.log"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("out\nerr\n", 6), string(log))

	for _, name := range []string{hysplit.AscdataFileName, hysplit.SetupFileName, hysplit.ControlFileName} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}
	dir, _ := se.ExecutionContext.GetString(model.ContextKeyRunDir)
	assert.Equal(t, runDir, dir)
}

func TestTrajectoryTasklet_SingleDateSingleHour(t *testing.T) {
	exec := &fakeExecutor{}
	se, exit, err := runTasklet(t, context.Background(), testConfig(t.TempDir()), exec, testRun("one", 1, "00"))

	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
	assert.Equal(t, 1, se.RenderCount)
	assert.Len(t, exec.requests, 1)
}

func TestTrajectoryTasklet_DuplicateHoursInvokeTwice(t *testing.T) {
	exec := &fakeExecutor{}
	_, _, err := runTasklet(t, context.Background(), testConfig(t.TempDir()), exec, testRun("dup", 1, "06", "06"))

	require.NoError(t, err)
	assert.Equal(t, []string{"14101506", "14101506"}, exec.stems())
}

func TestTrajectoryTasklet_ReusedDirectoryReplacesLog(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	run := testRun("site_a", 1, "00")

	first := &fakeExecutor{respond: func(int) port.CommandOutput {
		return port.CommandOutput{Stdout: []byte("first run output that is fairly long\n")}
	}}
	_, _, err := runTasklet(t, context.Background(), cfg, first, run)
	require.NoError(t, err)

	second := &fakeExecutor{respond: func(int) port.CommandOutput {
		return port.CommandOutput{Stdout: []byte("second\n")}
	}}
	_, _, err = runTasklet(t, context.Background(), cfg, second, run)
	require.NoError(t, err)

	log, err := os.ReadFile(filepath.Join(root, "site_a", "run.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(log))
}

func TestTrajectoryTasklet_InvocationFailureContinues(t *testing.T) {
	exec := &fakeExecutor{respond: func(call int) port.CommandOutput {
		if call == 2 {
			return port.CommandOutput{Stderr: []byte("boom\n"), ExitCode: 1, Err: errors.New("exited with status 1")}
		}
		return port.CommandOutput{Stdout: []byte("ok\n")}
	}}

	se, exit, err := runTasklet(t, context.Background(), testConfig(t.TempDir()), exec, testRun("site_a", 2, "00", "12"))

	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompletedWithFailures, exit)
	assert.Equal(t, 4, se.InvocationCount)
	assert.Equal(t, 1, se.InvocationFailureCount)
	require.Len(t, se.Failures, 1)
	assert.Contains(t, se.Failures[0], "2014-10-15 12")
}

func TestTrajectoryTasklet_AbortOnInvocationFailure(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Trajbatch.Batch.AbortRunOnInvocationFailure = true
	exec := &fakeExecutor{respond: func(call int) port.CommandOutput {
		return port.CommandOutput{ExitCode: -1, Err: errors.New("executable file not found")}
	}}

	se, exit, err := runTasklet(t, context.Background(), cfg, exec, testRun("site_a", 3, "00", "12"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrSubprocess))
	assert.Equal(t, model.ExitStatusFailed, exit)
	assert.Equal(t, 1, se.InvocationCount)
}

func TestTrajectoryTasklet_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &fakeExecutor{respond: func(call int) port.CommandOutput {
		if call == 2 {
			cancel()
		}
		return port.CommandOutput{}
	}}

	se, exit, err := runTasklet(t, ctx, testConfig(t.TempDir()), exec, testRun("site_a", 3, "00", "12"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.ExitStatusStopped, exit)
	assert.Equal(t, 2, se.InvocationCount)
}

func TestTrajectoryTasklet_UncreatableDirectory(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	exec := &fakeExecutor{}
	_, exit, err := runTasklet(t, context.Background(), testConfig(blocker), exec, testRun("site_a", 1, "00"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrIO))
	assert.Equal(t, model.ExitStatusFailed, exit)
	assert.Empty(t, exec.requests)
}

func TestNewFactory_ResolvesRelativeBinaryPath(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Trajbatch.Model.BinaryPath = "./bin/hyts_std"

	f, err := NewFactory(cfg, &fakeExecutor{}, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(f.binaryPath))

	cfg.Trajbatch.Model.WeekScheme = "lunar"
	_, err = NewFactory(cfg, &fakeExecutor{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestRunDir(t *testing.T) {
	dir, err := RunDir("/srv/out", "site_a")
	require.NoError(t, err)
	assert.Equal(t, "/srv/out/site_a", dir)

	dir, err = RunDir("/srv/out", "/abs/site_b")
	require.NoError(t, err)
	assert.Equal(t, "/abs/site_b", dir)
}

func TestTrajectoryTasklet_InvokesBinaryWithoutArgumentsInRunDirectory(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Trajbatch.Model.BinaryPath = "/opt/hysplit/exec/hyts_std"
	cfg.Trajbatch.Model.InvocationTimeoutSeconds = 30
	runDir := filepath.Join(root, "site_a")

	exec := &batchtest.MockCommandExecutor{}
	exec.On("Execute", mock.Anything, port.CommandRequest{
		Path:    "/opt/hysplit/exec/hyts_std",
		Dir:     runDir,
		Timeout: 30 * time.Second,
	}).Return(port.CommandOutput{Stdout: []byte("ok\n")}).Once()

	se, exit, err := runTasklet(t, context.Background(), cfg, exec, testRun("site_a", 1, "00"))

	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)
	assert.Equal(t, 1, se.InvocationCount)
	exec.AssertExpectations(t)
}

func TestTrajectoryTasklet_DefaultDirsAreAbsolute(t *testing.T) {
	root := t.TempDir()
	cfg := config.NewConfig()
	cfg.Trajbatch.Batch.OutputRoot = root
	exec := &fakeExecutor{}

	_, exit, err := runTasklet(t, context.Background(), cfg, exec, testRun("site_a", 1, "00"))
	require.NoError(t, err)
	assert.Equal(t, model.ExitStatusCompleted, exit)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	meteoDir := filepath.Join(cwd, "meteo") + string(filepath.Separator)
	require.Len(t, exec.controls, 1)
	assert.Contains(t, strings.Split(exec.controls[0], "\n"), meteoDir)

	ascdata, err := os.ReadFile(filepath.Join(root, "site_a", hysplit.AscdataFileName))
	require.NoError(t, err)
	assert.Contains(t, string(ascdata), "'"+filepath.Join(cwd, "bdyfiles")+string(filepath.Separator)+"'  directory of files")
}
