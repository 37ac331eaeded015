package query

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vibesql/sqlzoo/internal/database"
)

const (
	DefaultQueryTimeout = 5 * time.Second
)

type Result struct {
	Columns       []string
	Rows          []Row
	RowCount      int
	ExecutionTime time.Duration
}

// Maps returns the rows as plain maps.
func (r *Result) Maps() []map[string]interface{} {
	maps := make([]map[string]interface{}, len(r.Rows))
	for i, row := range r.Rows {
		maps[i] = row.Map()
	}
	return maps
}

type Executor struct {
	db      sqlx.QueryerContext
	timeout time.Duration
	maxRows int
}

type Option func(*Executor)

// WithTimeout bounds every query. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithMaxRows caps the size of a result set. Zero or negative disables the cap.
func WithMaxRows(n int) Option {
	return func(e *Executor) {
		e.maxRows = n
	}
}

func NewExecutor(db sqlx.QueryerContext, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		timeout: DefaultQueryTimeout,
		maxRows: MaxResultRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs sql with optional bind args and materializes the result.
// Any failure comes back as a *database.Error wrapping the driver error.
func (e *Executor) Execute(ctx context.Context, sql string, args ...interface{}) (*Result, error) {
	startTime := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := e.db.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	defer rows.Close()

	columns, result, err := e.parseRows(rows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Columns:       columns,
		Rows:          result,
		RowCount:      len(result),
		ExecutionTime: time.Since(startTime),
	}, nil
}

func (e *Executor) parseRows(rows *sqlx.Rows) ([]string, []Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, database.TranslateError(err)
	}

	results := []Row{}

	for rows.Next() {
		if err := CheckRowLimit(len(results), e.maxRows); err != nil {
			return nil, nil, err
		}

		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, database.TranslateError(err)
		}

		for i, val := range values {
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}

		results = append(results, NewRow(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, nil, database.TranslateError(err)
	}

	return columns, results, nil
}
