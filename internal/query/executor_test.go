package query

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vibesql/sqlzoo/internal/database"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("SQLZOO_TEST_DSN")
	if dsn == "" {
		dsn = "host=127.0.0.1 port=5432 user=postgres dbname=postgres sslmode=disable"
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("Skipping test: database not available: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewExecutor_Defaults(t *testing.T) {
	executor := NewExecutor(nil)

	if executor.timeout != DefaultQueryTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultQueryTimeout, executor.timeout)
	}
	if executor.maxRows != MaxResultRows {
		t.Errorf("Expected default max rows %d, got %d", MaxResultRows, executor.maxRows)
	}
}

func TestNewExecutor_Options(t *testing.T) {
	executor := NewExecutor(nil, WithTimeout(time.Second), WithMaxRows(10))

	if executor.timeout != time.Second {
		t.Errorf("Expected timeout 1s, got %v", executor.timeout)
	}
	if executor.maxRows != 10 {
		t.Errorf("Expected max rows 10, got %d", executor.maxRows)
	}
}

func TestCheckRowLimit(t *testing.T) {
	testCases := []struct {
		name         string
		currentCount int
		maxRows      int
		expectError  bool
	}{
		{"0 rows", 0, 1000, false},
		{"999 rows", 999, 1000, false},
		{"1000 rows", 1000, 1000, true},
		{"2000 rows", 2000, 1000, true},
		{"custom limit reached", 10, 10, true},
		{"no limit", 1000000, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRowLimit(tc.currentCount, tc.maxRows)
			if tc.expectError {
				assertErrorCode(t, err, database.ErrorCodeResultTooLarge)
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT 1 AS test")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.RowCount != 1 || len(result.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", result.RowCount)
	}

	v, ok := result.Rows[0].Get("test")
	if !ok || v != int64(1) {
		t.Errorf("Expected test = 1, got %v", v)
	}

	if result.ExecutionTime <= 0 {
		t.Error("Expected positive execution time")
	}
}

func TestExecutor_Execute_ColumnOrder(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT 3 AS c, 1 AS a, 2 AS b, 4 AS a")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"c", "a", "b", "a"}
	if len(result.Columns) != len(want) {
		t.Fatalf("Expected columns %v, got %v", want, result.Columns)
	}
	for i, col := range want {
		if result.Columns[i] != col {
			t.Errorf("column %d: expected %s, got %s", i, col, result.Columns[i])
		}
	}

	row := result.Rows[0]
	if row.At(3) != int64(4) {
		t.Errorf("Expected duplicate column to be kept positionally, got %v", row.At(3))
	}
	if v, _ := row.Get("a"); v != int64(1) {
		t.Errorf("Expected Get to return the first a, got %v", v)
	}
}

func TestExecutor_Execute_BindParameters(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT $1::text AS name, $2::int AS ord", "Harrison Ford", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	row := result.Rows[0]
	if v, _ := row.Get("name"); v != "Harrison Ford" {
		t.Errorf("Expected name = Harrison Ford, got %v", v)
	}
	if v, _ := row.Get("ord"); v != int64(1) {
		t.Errorf("Expected ord = 1, got %v", v)
	}
}

func TestExecutor_Execute_Nulls(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT NULL::float AS price, 'x' AS label")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if v, ok := result.Rows[0].Get("price"); !ok || v != nil {
		t.Errorf("Expected NULL to come back as nil, got %v (%T)", v, v)
	}
}

func TestExecutor_Execute_EmptyResult(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT 1 AS one WHERE false")
	if err != nil {
		t.Fatalf("Expected no error for empty result, got: %v", err)
	}

	if result.RowCount != 0 || len(result.Rows) != 0 {
		t.Errorf("Expected 0 rows, got %d", result.RowCount)
	}
	if len(result.Columns) != 1 || result.Columns[0] != "one" {
		t.Errorf("Expected columns to be reported for empty result, got %v", result.Columns)
	}
}

func TestExecutor_Execute_InvalidSQL(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	_, err := executor.Execute(context.Background(), "SELECT * FROM nonexistent_table_for_sqlzoo")
	assertErrorCode(t, err, database.ErrorCodeInvalidSQL)

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		t.Fatal("Expected the driver error to be reachable")
	}
	if pqErr.Code != "42P01" {
		t.Errorf("Expected SQLSTATE 42P01, got %s", pqErr.Code)
	}
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db, WithTimeout(500*time.Millisecond))

	startTime := time.Now()
	_, err := executor.Execute(context.Background(), "SELECT pg_sleep(5)")
	elapsed := time.Since(startTime)

	assertErrorCode(t, err, database.ErrorCodeQueryTimeout)
	if elapsed > 3*time.Second {
		t.Errorf("Expected timeout around 500ms, got %v", elapsed)
	}
}

func TestExecutor_Execute_ResultTooLarge(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db, WithMaxRows(10))

	_, err := executor.Execute(context.Background(), "SELECT generate_series(1, 11) AS num")
	assertErrorCode(t, err, database.ErrorCodeResultTooLarge)

	result, err := executor.Execute(context.Background(), "SELECT generate_series(1, 10) AS num")
	if err != nil {
		t.Fatalf("Expected no error for exactly 10 rows, got: %v", err)
	}
	if result.RowCount != 10 {
		t.Errorf("Expected RowCount = 10, got %d", result.RowCount)
	}
}

func TestExecutor_Execute_TextIsString(t *testing.T) {
	db := setupTestDB(t)
	executor := NewExecutor(db)

	result, err := executor.Execute(context.Background(), "SELECT 'Blur'::text AS title, 9.99::numeric AS price")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	row := result.Rows[0]
	if v, _ := row.Get("title"); v != "Blur" {
		t.Errorf("Expected title string, got %v (%T)", v, v)
	}
	if v, _ := row.Get("price"); v != "9.99" {
		t.Errorf("Expected numeric to come back as string, got %v (%T)", v, v)
	}
}
