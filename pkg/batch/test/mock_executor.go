package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	port "github.com/tigerroll/trajbatch/pkg/batch/core/application/port"
)

// MockCommandExecutor is a testify mock of port.CommandExecutor.
type MockCommandExecutor struct {
	mock.Mock
}

// Execute records the request and returns the configured output.
func (m *MockCommandExecutor) Execute(ctx context.Context, req port.CommandRequest) port.CommandOutput {
	args := m.Called(ctx, req)
	return args.Get(0).(port.CommandOutput)
}

var _ port.CommandExecutor = (*MockCommandExecutor)(nil)
