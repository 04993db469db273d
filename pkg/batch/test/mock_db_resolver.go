// Package test provides testify mocks and fixtures shared by package tests.
package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/trajbatch/pkg/batch/adapter/database"
	coreadapter "github.com/tigerroll/trajbatch/pkg/batch/core/adapter"
)

// MockDBConnectionResolver is a testify mock of database.DBConnectionResolver.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection returns the configured connection, which may be nil.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	conn, _ := args.Get(0).(dbadapter.DBConnection)
	return conn, args.Error(1)
}

// ResolveConnection delegates to ResolveDBConnection.
func (m *MockDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreadapter.ResourceConnection, error) {
	conn, err := m.ResolveDBConnection(ctx, name)
	if conn == nil {
		return nil, err
	}
	return conn, err
}

var _ dbadapter.DBConnectionResolver = (*MockDBConnectionResolver)(nil)
