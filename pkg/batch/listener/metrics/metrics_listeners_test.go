package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	model "github.com/tigerroll/trajbatch/pkg/batch/core/domain/model"
	listenermetrics "github.com/tigerroll/trajbatch/pkg/batch/listener/metrics"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordJobStart(ctx context.Context, je *model.JobExecution) { m.Called(je) }
func (m *mockRecorder) RecordJobEnd(ctx context.Context, je *model.JobExecution)   { m.Called(je) }
func (m *mockRecorder) RecordStepStart(ctx context.Context, se *model.StepExecution) {
	m.Called(se)
}
func (m *mockRecorder) RecordStepEnd(ctx context.Context, se *model.StepExecution) { m.Called(se) }
func (m *mockRecorder) RecordRowSkip(ctx context.Context, reason string)           { m.Called(reason) }
func (m *mockRecorder) RecordControlRender(ctx context.Context, stepName string) {
	m.Called(stepName)
}
func (m *mockRecorder) RecordInvocation(ctx context.Context, stepName, outcome string, d time.Duration) {
	m.Called(stepName, outcome, d)
}
func (m *mockRecorder) RecordDuration(ctx context.Context, name string, d time.Duration, tags map[string]string) {
	m.Called(name, d, tags)
}

type textfileRecorder struct {
	mockRecorder
}

func (m *textfileRecorder) WriteTextfile(path string) error {
	return m.Called(path).Error(0)
}

func TestMetricsInvocationListener_Outcome(t *testing.T) {
	rec := &mockRecorder{}
	l := listenermetrics.NewMetricsInvocationListener(rec)

	je := model.NewJobExecution("job", model.NewJobParameters())
	se := model.NewStepExecution(je, "out/a")

	rec.On("RecordInvocation", "out/a", "success", 2*time.Second).Once()
	rec.On("RecordInvocation", "out/a", "failure", time.Second).Once()

	l.AfterInvocation(context.Background(), se, &model.InvocationResult{Duration: 2 * time.Second})
	l.AfterInvocation(context.Background(), se, &model.InvocationResult{Duration: time.Second, ExitCode: 3, Err: errors.New("exit status 3")})

	rec.AssertExpectations(t)
}

func TestMetricsJobListener_WritesTextfile(t *testing.T) {
	rec := &textfileRecorder{}
	je := model.NewJobExecution("job", model.NewJobParameters())

	rec.On("RecordJobStart", je).Once()
	rec.On("RecordJobEnd", je).Once()
	rec.On("WriteTextfile", "/var/lib/node_exporter/trajbatch.prom").Return(nil).Once()

	l := listenermetrics.NewMetricsJobListener(rec, "/var/lib/node_exporter/trajbatch.prom")
	l.BeforeJob(context.Background(), je)
	l.AfterJob(context.Background(), je)

	rec.AssertExpectations(t)
}

func TestMetricsJobListener_NoTextfileWithoutPath(t *testing.T) {
	rec := &textfileRecorder{}
	je := model.NewJobExecution("job", model.NewJobParameters())
	rec.On("RecordJobEnd", je).Once()

	l := listenermetrics.NewMetricsJobListener(rec, "")
	l.AfterJob(context.Background(), je)

	rec.AssertExpectations(t)
	rec.AssertNotCalled(t, "WriteTextfile", mock.Anything)
}
