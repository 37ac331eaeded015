package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout    = 10 * time.Second
	sandboxUser        = "postgres"
	sandboxDatabase    = "postgres"
)

var (
	startupTimeout = 30 * time.Second

	// searched when neither POSTGRES_BIN nor PATH provide a postgres binary
	binaryGlobs = []string{
		"/usr/lib/postgresql/*/bin",
		"/usr/local/pgsql/bin",
		"/opt/homebrew/opt/postgresql*/bin",
		"/usr/local/opt/postgresql*/bin",
	}
)

// Manager runs a throwaway PostgreSQL cluster from the binaries installed
// on the host. The cluster only listens on 127.0.0.1 and trusts all local
// connections.
type Manager struct {
	dataDir     string
	ownsDataDir bool
	port        int
	process     *exec.Cmd
	exited      chan struct{}
	processLock sync.Mutex
	running     bool

	postgresBinPath string
	initdbBinPath   string
	pgCtlBinPath    string

	ctx    context.Context
	cancel context.CancelFunc
	errCh  chan error
}

// NewManager creates a manager for a cluster in dataDir listening on port.
// An empty dataDir means a temporary directory removed by Stop. Port 0
// means a free port picked by Start.
func NewManager(dataDir string, port int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		dataDir: dataDir,
		port:    port,
		ctx:     ctx,
		cancel:  cancel,
		errCh:   make(chan error, 1),
	}
}

// Start initializes the data directory if needed and runs postgres until
// it accepts connections. A failed start removes a temporary data
// directory it created.
func (m *Manager) Start() (err error) {
	m.processLock.Lock()
	defer m.processLock.Unlock()

	if m.running {
		return fmt.Errorf("postgres manager already running")
	}

	if err := m.locateBinaries(); err != nil {
		return fmt.Errorf("failed to locate postgres binaries: %w", err)
	}

	if m.port == 0 {
		port, err := freePort()
		if err != nil {
			return fmt.Errorf("failed to pick a sandbox port: %w", err)
		}
		m.port = port
	}

	if m.dataDir == "" {
		tmpDir, err := os.MkdirTemp("", "sqlzoo-pgdata-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		m.dataDir = tmpDir
		m.ownsDataDir = true
	}
	defer func() {
		if err != nil && m.ownsDataDir {
			_ = os.RemoveAll(m.dataDir)
			m.dataDir = ""
			m.ownsDataDir = false
		}
	}()

	if err := m.initializeDataDir(); err != nil {
		return fmt.Errorf("failed to initialize data directory: %w", err)
	}

	if err := m.startPostgres(); err != nil {
		return fmt.Errorf("failed to start postgres: %w", err)
	}

	go m.monitorProcess(m.process, m.exited)

	if err := m.waitForReady(); err != nil {
		m.cancel()
		_ = m.stopPostgres()
		return fmt.Errorf("postgres failed to become ready: %w", err)
	}

	m.running = true
	log.WithFields(log.Fields{"port": m.port, "data_dir": m.dataDir}).Info("sandbox postgres ready")

	return nil
}

func (m *Manager) Stop() error {
	m.processLock.Lock()
	defer m.processLock.Unlock()

	if !m.running {
		return nil
	}

	m.cancel()
	m.running = false

	err := m.stopPostgres()

	if m.ownsDataDir {
		_ = os.RemoveAll(m.dataDir)
		m.dataDir = ""
		m.ownsDataDir = false
	}

	return err
}

// freePort asks the kernel for an unused localhost port. The listener is
// closed before postgres binds the port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func platformBinExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

func (m *Manager) locateBinaries() error {
	ext := platformBinExt()

	postgresBin := os.Getenv("POSTGRES_BIN")
	if postgresBin == "" {
		postgresBin = findPostgres(ext)
	}
	if postgresBin == "" {
		return fmt.Errorf("no postgres binary found; install PostgreSQL or set POSTGRES_BIN")
	}

	m.postgresBinPath = postgresBin
	binDir := filepath.Dir(postgresBin)
	m.initdbBinPath = filepath.Join(binDir, "initdb"+ext)
	m.pgCtlBinPath = filepath.Join(binDir, "pg_ctl"+ext)

	if _, err := os.Stat(m.postgresBinPath); err != nil {
		return fmt.Errorf("postgres not found at %s: %w", m.postgresBinPath, err)
	}
	if _, err := os.Stat(m.initdbBinPath); err != nil {
		return fmt.Errorf("initdb not found at %s: %w", m.initdbBinPath, err)
	}
	if _, err := os.Stat(m.pgCtlBinPath); err != nil {
		m.pgCtlBinPath = ""
	}

	log.WithField("postgres", m.postgresBinPath).Debug("using postgres binaries")
	return nil
}

func findPostgres(ext string) string {
	if p, err := exec.LookPath("postgres" + ext); err == nil {
		return p
	}

	var candidates []string
	for _, pattern := range binaryGlobs {
		dirs, _ := filepath.Glob(pattern)
		candidates = append(candidates, dirs...)
	}
	// newest major version sorts last for the versioned layouts
	sort.Strings(candidates)
	for i := len(candidates) - 1; i >= 0; i-- {
		p := filepath.Join(candidates[i], "postgres"+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (m *Manager) initializeDataDir() error {
	pgVersionPath := filepath.Join(m.dataDir, "PG_VERSION")
	if _, err := os.Stat(pgVersionPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(m.dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	initdbArgs := []string{
		"-D", m.dataDir,
		"--no-locale",
		"--encoding=UTF8",
		"--auth=trust",
		"--username=" + sandboxUser,
		"--nosync",
	}

	cmd := exec.Command(m.initdbBinPath, initdbArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("initdb failed: %w\nOutput: %s", err, string(output))
	}

	if err := m.createConfigFiles(); err != nil {
		return fmt.Errorf("failed to create config files: %w", err)
	}

	return nil
}

func (m *Manager) createConfigFiles() error {
	confPath := filepath.Join(m.dataDir, "postgresql.conf")
	conf := fmt.Sprintf(`
listen_addresses = '127.0.0.1'
port = %d
max_connections = 20
shared_buffers = 16MB
unix_socket_directories = ''
log_destination = 'stderr'
logging_collector = off
timezone = 'UTC'
`, m.port)

	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		return err
	}

	hbaPath := filepath.Join(m.dataDir, "pg_hba.conf")
	hba := `# TYPE  DATABASE        USER            ADDRESS                 METHOD
host    all             all             127.0.0.1/32            trust
host    all             all             ::1/128                 trust
`
	return os.WriteFile(hbaPath, []byte(hba), 0600)
}

func (m *Manager) startPostgres() error {
	args := []string{
		"-D", m.dataDir,
		"-c", fmt.Sprintf("port=%d", m.port),
		"-c", "listen_addresses=127.0.0.1",
	}

	m.process = exec.Command(m.postgresBinPath, args...)
	m.exited = make(chan struct{})

	stdout, err := m.process.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := m.process.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := m.process.Start(); err != nil {
		return fmt.Errorf("failed to start postgres process: %w", err)
	}

	go m.logOutput(stdout, "stdout")
	go m.logOutput(stderr, "stderr")

	return nil
}

func (m *Manager) stopPostgres() error {
	if m.process == nil {
		return nil
	}

	if m.pgCtlBinPath != "" {
		cmd := exec.Command(m.pgCtlBinPath, "stop", "-D", m.dataDir, "-m", "fast", "-w")
		if err := cmd.Run(); err == nil {
			m.process = nil
			return nil
		}
	}

	if m.process.Process != nil {
		if err := m.process.Process.Signal(os.Interrupt); err != nil {
			_ = m.process.Process.Kill()
		}

		timer := time.NewTimer(shutdownTimeout)
		defer timer.Stop()

		select {
		case <-m.exited:
		case <-timer.C:
			_ = m.process.Process.Kill()
		}
	}

	m.process = nil
	return nil
}

func (m *Manager) waitForReady() error {
	timeout := time.After(startupTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("postgres startup timeout after %v", startupTimeout)
		case err := <-m.errCh:
			return fmt.Errorf("postgres startup error: %w", err)
		case <-ticker.C:
			if m.isReady() {
				return nil
			}
		}
	}
}

// isReady reports whether our own postmaster accepts connections. Nothing
// is dialed until postmaster.pid names the child we started.
func (m *Manager) isReady() bool {
	if m.process == nil || m.process.Process == nil {
		return false
	}

	pid, err := postmasterPID(m.dataDir)
	if err != nil || pid != m.process.Process.Pid {
		return false
	}

	conn, err := Open(m.ctx, m.Options())
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// postmasterPID reads the pid from the first line of postmaster.pid.
func postmasterPID(dataDir string) (int, error) {
	b, err := os.ReadFile(filepath.Join(dataDir, "postmaster.pid"))
	if err != nil {
		return 0, err
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strconv.Atoi(strings.TrimSpace(line))
}

func (m *Manager) monitorProcess(process *exec.Cmd, exited chan struct{}) {
	err := process.Wait()
	close(exited)

	select {
	case <-m.ctx.Done():
		return
	default:
		if err != nil {
			m.errCh <- fmt.Errorf("postgres process exited unexpectedly: %w", err)
		} else {
			m.errCh <- fmt.Errorf("postgres process exited unexpectedly")
		}
		log.Error("sandbox postgres exited unexpectedly")

		m.processLock.Lock()
		m.running = false
		m.processLock.Unlock()
	}
}

func (m *Manager) logOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "FATAL") || strings.Contains(line, "ERROR") {
			log.WithField("source", source).Warn(line)
		} else {
			log.WithField("source", source).Trace(line)
		}
	}
}

func (m *Manager) IsRunning() bool {
	m.processLock.Lock()
	defer m.processLock.Unlock()
	return m.running
}

// Options returns connection options for the sandbox cluster.
func (m *Manager) Options() Options {
	opts := DefaultOptions()
	opts.Port = m.port
	opts.User = sandboxUser
	opts.Name = sandboxDatabase
	return opts
}

func (m *Manager) CreateConnection(ctx context.Context) (*Connection, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("postgres manager is not running")
	}

	return Open(ctx, m.Options())
}

func (m *Manager) DataDir() string {
	return m.dataDir
}

func (m *Manager) Port() int {
	return m.port
}
