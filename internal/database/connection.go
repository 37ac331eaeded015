package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const (
	defaultMaxOpenConnections = 5
	maxIdleConnections        = 2
	connMaxLifetime           = 1 * time.Hour
	connMaxIdleTime           = 10 * time.Minute
	pingTimeout               = 5 * time.Second
)

// Options describes how to reach the database holding the exercise schemas.
// A non-empty DSN is handed to the driver as is.
type Options struct {
	Driver       string
	DSN          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

// DefaultOptions points at a local PostgreSQL.
func DefaultOptions() Options {
	return Options{
		Driver:       DriverPostgres,
		Host:         "127.0.0.1",
		Port:         5432,
		User:         "postgres",
		Name:         "sqlzoo",
		SSLMode:      "disable",
		MaxOpenConns: defaultMaxOpenConnections,
	}
}

// DataSourceName builds the driver specific connection string.
func (o Options) DataSourceName() (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}

	switch o.Driver {
	case DriverPostgres, "":
		connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			o.Host, o.Port, o.User, o.Name, o.sslMode())
		if o.Password != "" {
			connStr += fmt.Sprintf(" password=%s", o.Password)
		}
		return connStr, nil
	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = o.User
		cfg.Passwd = o.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
		cfg.DBName = o.Name
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

func (o Options) sslMode() string {
	if o.SSLMode == "" {
		return "disable"
	}
	return o.SSLMode
}

func (o Options) driverName() string {
	if o.Driver == "" {
		return DriverPostgres
	}
	return o.Driver
}

// Connection is a pooled handle to the exercise database
type Connection struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database described by opts and verifies the
// connection with a ping.
func Open(ctx context.Context, opts Options) (*Connection, error) {
	dsn, err := opts.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(opts.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConnections
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(maxIdleConnections, maxOpen))
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, driver: opts.driverName()}, nil
}

// DB returns the underlying connection pool
func (c *Connection) DB() *sqlx.DB {
	return c.db
}

// Driver returns the driver name the connection was opened with
func (c *Connection) Driver() string {
	return c.driver
}

// Close closes the connection pool
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the connection is still alive
func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return c.db.PingContext(ctx)
}

// NewConnection wraps an already opened handle. The driver is taken from
// the handle's driver name.
func NewConnection(db *sqlx.DB) *Connection {
	return &Connection{db: db, driver: db.DriverName()}
}
