package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vibesql/sqlzoo/internal/database"
	"github.com/vibesql/sqlzoo/internal/exercise"
	"github.com/vibesql/sqlzoo/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--no-config", "--log-stderr"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "sqlzoo "+version.Get().Version) {
		t.Errorf("Expected version in output, got: %s", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("Expected commit line, got: %s", out)
	}
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, name := range exercise.Names() {
		if !strings.Contains(out, name) {
			t.Errorf("Expected %s in list output", name)
		}
	}
	if !strings.Contains(out, "(20 rows)") {
		t.Errorf("Expected row count footer, got: %s", out)
	}
}

func TestList_SchemaJSON(t *testing.T) {
	out, err := execute(t, "list", "--schema", "movies", "--format", "json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var doc struct {
		Rows []map[string]string `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(doc.Rows) != 9 {
		t.Fatalf("Expected 9 movie exercises, got %d", len(doc.Rows))
	}
	for _, row := range doc.Rows {
		if row["schema"] != "movies" {
			t.Errorf("Unexpected schema in %v", row)
		}
	}
}

func TestList_Errors(t *testing.T) {
	if _, err := execute(t, "list", "--schema", "planets"); err == nil {
		t.Error("Expected error for unknown schema")
	}
	if _, err := execute(t, "list", "--format", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestShow(t *testing.T) {
	out, err := execute(t, "show", "colleagues_of_garfunkel")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Art Garfunkel") || !strings.HasSuffix(strings.TrimSpace(out), ";") {
		t.Errorf("Unexpected show output: %s", out)
	}
}

func TestShow_Unknown(t *testing.T) {
	_, err := execute(t, "show", "nope")
	if !errors.Is(err, exercise.ErrUnknownExercise) {
		t.Errorf("Expected ErrUnknownExercise, got %v", err)
	}
}

func TestRun_UnknownExerciseFailsBeforeConnecting(t *testing.T) {
	// An unreachable port would make a connection attempt fail differently.
	_, err := execute(t, "--db-port", "1", "run", "ford_films", "nope")
	if !errors.Is(err, exercise.ErrUnknownExercise) {
		t.Errorf("Expected ErrUnknownExercise, got %v", err)
	}
}

func TestQuery_RejectedBeforeConnecting(t *testing.T) {
	_, err := execute(t, "--db-port", "1", "query", "DELETE FROM movies")

	var dbErr *database.Error
	if !errors.As(err, &dbErr) || dbErr.Code != database.ErrorCodeUnsafeQuery {
		t.Errorf("Expected UNSAFE_QUERY, got %v", err)
	}
}

func TestSeed_InvalidDataset(t *testing.T) {
	if _, err := execute(t, "seed", "planets"); err == nil {
		t.Error("Expected error for unknown dataset")
	}
}

func TestBadLogLevel(t *testing.T) {
	if _, err := execute(t, "--log-level", "loud", "version"); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "frobnicate"); err == nil {
		t.Error("Expected error for unknown command")
	}
}
