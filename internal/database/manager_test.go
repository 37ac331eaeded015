package database

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager("", 0)

	if m.Port() != 0 {
		t.Errorf("Expected port to be picked at start, got %d", m.Port())
	}
	if m.DataDir() != "" {
		t.Errorf("Expected empty data dir before start, got %q", m.DataDir())
	}
	if m.IsRunning() {
		t.Error("New manager should not be running")
	}
}

func TestManager_Options(t *testing.T) {
	m := NewManager("", 6543)
	opts := m.Options()

	if opts.Port != 6543 {
		t.Errorf("Expected port 6543, got %d", opts.Port)
	}
	if opts.Driver != DriverPostgres {
		t.Errorf("Expected postgres driver, got %s", opts.Driver)
	}
	if opts.Name != sandboxDatabase || opts.User != sandboxUser {
		t.Errorf("Unexpected sandbox credentials: %+v", opts)
	}
}

func TestManager_StopWhenNotRunning(t *testing.T) {
	m := NewManager(t.TempDir(), 5433)
	if err := m.Stop(); err != nil {
		t.Errorf("Stop() on idle manager should be a no-op, got %v", err)
	}
}

func TestManager_CreateConnectionNotRunning(t *testing.T) {
	m := NewManager(t.TempDir(), 5433)
	if _, err := m.CreateConnection(context.Background()); err == nil {
		t.Error("Expected error when manager is not running")
	}
}

func TestManager_LocateBinaries_BadEnv(t *testing.T) {
	t.Setenv("POSTGRES_BIN", filepath.Join(t.TempDir(), "postgres"))

	m := NewManager(t.TempDir(), 5433)
	err := m.locateBinaries()
	if err == nil {
		t.Fatal("Expected error for missing POSTGRES_BIN target")
	}
	if !strings.Contains(err.Error(), "postgres not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestManager_LocateBinaries_MissingInitdb(t *testing.T) {
	binDir := t.TempDir()
	postgresBin := filepath.Join(binDir, "postgres"+platformBinExt())
	if err := os.WriteFile(postgresBin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POSTGRES_BIN", postgresBin)

	m := NewManager(t.TempDir(), 5433)
	err := m.locateBinaries()
	if err == nil || !strings.Contains(err.Error(), "initdb not found") {
		t.Fatalf("Expected initdb not found error, got %v", err)
	}
}

func TestManager_InitializeDataDir_InvalidBinary(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "pgdata"), 5433)
	m.initdbBinPath = "/nonexistent/initdb"

	if err := m.initializeDataDir(); err == nil {
		t.Error("expected error when initdb binary doesn't exist")
	}
}

func TestManager_InitializeDataDir_AlreadyInitialized(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "PG_VERSION"), []byte("16\n"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dataDir, 5433)
	m.initdbBinPath = "/nonexistent/initdb"

	if err := m.initializeDataDir(); err != nil {
		t.Errorf("initializeDataDir should skip an initialized directory, got %v", err)
	}
}

func TestManager_CreateConfigFiles(t *testing.T) {
	dataDir := t.TempDir()
	m := NewManager(dataDir, 5499)

	if err := m.createConfigFiles(); err != nil {
		t.Fatalf("createConfigFiles failed: %v", err)
	}

	conf, err := os.ReadFile(filepath.Join(dataDir, "postgresql.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(conf), "port = 5499") {
		t.Error("postgresql.conf should contain the configured port")
	}
	if !strings.Contains(string(conf), "listen_addresses = '127.0.0.1'") {
		t.Error("postgresql.conf should only listen on localhost")
	}

	hba, err := os.ReadFile(filepath.Join(dataDir, "pg_hba.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(hba), "127.0.0.1/32            trust") {
		t.Error("pg_hba.conf should trust localhost")
	}
}

func TestFreePort(t *testing.T) {
	port, err := freePort()
	if err != nil {
		t.Fatalf("freePort failed: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Errorf("Unexpected port %d", port)
	}
}

func TestPostmasterPID(t *testing.T) {
	dataDir := t.TempDir()
	if _, err := postmasterPID(dataDir); err == nil {
		t.Error("Expected error without postmaster.pid")
	}

	pidFile := "4242\n" + dataDir + "\n1700000000\n55433\n"
	if err := os.WriteFile(filepath.Join(dataDir, "postmaster.pid"), []byte(pidFile), 0600); err != nil {
		t.Fatal(err)
	}
	pid, err := postmasterPID(dataDir)
	if err != nil {
		t.Fatalf("postmasterPID failed: %v", err)
	}
	if pid != 4242 {
		t.Errorf("Expected pid 4242, got %d", pid)
	}
}

func TestManager_IsReadyIgnoresForeignPostmaster(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "postmaster.pid"), []byte("1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(dataDir, 5433)
	if m.isReady() {
		t.Error("isReady should be false without our own postgres process")
	}
}

func TestManager_StartFailureRemovesTempDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries are shell scripts")
	}

	binDir := t.TempDir()
	scripts := map[string]string{
		"postgres": "#!/bin/sh\nexit 0\n",
		"initdb":   "#!/bin/sh\necho 'initdb: could not create directory' >&2\nexit 1\n",
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(body), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("POSTGRES_BIN", filepath.Join(binDir, "postgres"))

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	m := NewManager("", 0)
	err := m.Start()
	if err == nil {
		m.Stop()
		t.Fatal("Expected Start to fail with a failing initdb")
	}
	if !strings.Contains(err.Error(), "initdb failed") {
		t.Errorf("Unexpected error: %v", err)
	}
	if m.DataDir() != "" {
		t.Errorf("Expected data dir to be cleared, got %q", m.DataDir())
	}
	if m.Port() == 0 {
		t.Error("Expected a port to have been picked")
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "sqlzoo-pgdata-") {
			t.Errorf("Temporary data dir %s was left behind", e.Name())
		}
	}
}

func TestManager_StartFailureKeepsCallerDataDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries are shell scripts")
	}

	binDir := t.TempDir()
	for _, name := range []string{"postgres", "initdb"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 1\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("POSTGRES_BIN", filepath.Join(binDir, "postgres"))

	dataDir := filepath.Join(t.TempDir(), "pgdata")
	m := NewManager(dataDir, 0)
	if err := m.Start(); err == nil {
		m.Stop()
		t.Fatal("Expected Start to fail with a failing initdb")
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("Caller's data dir should be kept on failure: %v", err)
	}
}

func TestManager_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sandbox cluster start in short mode")
	}

	m := NewManager("", 0)
	if err := m.locateBinaries(); err != nil {
		t.Skipf("Skipping: %v", err)
	}

	if err := m.Start(); err != nil {
		t.Skipf("Skipping: sandbox cluster did not start: %v", err)
	}
	dataDir := m.DataDir()

	conn, err := m.CreateConnection(context.Background())
	if err != nil {
		m.Stop()
		t.Fatalf("CreateConnection failed: %v", err)
	}
	conn.Close()

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if m.IsRunning() {
		t.Error("manager should not be running after Stop")
	}
	if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
		t.Error("temporary data dir should be removed on Stop")
	}
}
