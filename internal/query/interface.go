package query

import "context"

// QueryExecutor defines the interface for executing SQL queries
type QueryExecutor interface {
	Execute(ctx context.Context, sql string, args ...interface{}) (*Result, error)
}

// Ensure Executor implements QueryExecutor
var _ QueryExecutor = (*Executor)(nil)
