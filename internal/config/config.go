// Package config gathers the settings shared by every sqlzoo command.
//
// Each setting is a pflag. A value comes from, in order of precedence, the
// command line, an SQLZOO_* environment variable (a .env file is read
// first), the HCL config file, and finally the built-in default.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/vibesql/sqlzoo/internal/database"
	"github.com/vibesql/sqlzoo/internal/query"
)

const (
	DefaultConfigFile = "sqlzoo.hcl"
	DefaultEnvFile    = ".env"
	EnvPrefix         = "SQLZOO_"

	DefaultHTTPHost       = "127.0.0.1"
	DefaultHTTPPort       = 5173
	DefaultMaxConnections = 2
)

type Config struct {
	Driver     string
	DSN        string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	QueryTimeout time.Duration
	MaxRows      int

	HTTPHost       string
	HTTPPort       int
	MaxConnections int

	LogLevel  string
	LogFile   string
	LogStderr bool

	ConfigFile string
	NoConfig   bool

	// settings are the flags that may also come from the environment or
	// the config file.
	settings map[string]*pflag.Flag
}

func Default() *Config {
	db := database.DefaultOptions()
	return &Config{
		Driver:         db.Driver,
		DBHost:         db.Host,
		DBPort:         db.Port,
		DBUser:         db.User,
		DBName:         db.Name,
		DBSSLMode:      db.SSLMode,
		QueryTimeout:   query.DefaultQueryTimeout,
		MaxRows:        query.MaxResultRows,
		HTTPHost:       DefaultHTTPHost,
		HTTPPort:       DefaultHTTPPort,
		MaxConnections: DefaultMaxConnections,
		LogLevel:       "info",
		LogFile:        "sqlzoo.log",
		ConfigFile:     DefaultConfigFile,
	}
}

// Bind registers every setting on fs.
func (c *Config) Bind(fs *pflag.FlagSet) {
	c.settings = map[string]*pflag.Flag{}
	setting := func(name string) {
		c.settings[name] = fs.Lookup(name)
	}

	fs.StringVar(&c.Driver, "driver", c.Driver, "database driver: postgres or mysql")
	setting("driver")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "driver `dsn`, overrides the db-* settings")
	setting("dsn")
	fs.StringVar(&c.DBHost, "db-host", c.DBHost, "database `host`")
	setting("db-host")
	fs.IntVar(&c.DBPort, "db-port", c.DBPort, "database `port`")
	setting("db-port")
	fs.StringVar(&c.DBUser, "db-user", c.DBUser, "database `user`")
	setting("db-user")
	fs.StringVar(&c.DBPassword, "db-password", c.DBPassword, "database `password`")
	setting("db-password")
	fs.StringVar(&c.DBName, "db-name", c.DBName, "database `name`")
	setting("db-name")
	fs.StringVar(&c.DBSSLMode, "db-sslmode", c.DBSSLMode, "postgres sslmode")
	setting("db-sslmode")

	fs.DurationVar(&c.QueryTimeout, "query-timeout", c.QueryTimeout, "per query `timeout`, 0 for none")
	setting("query-timeout")
	fs.IntVar(&c.MaxRows, "max-rows", c.MaxRows, "maximum rows in a result, 0 for no limit")
	setting("max-rows")

	fs.StringVar(&c.HTTPHost, "http-host", c.HTTPHost, "`host` for the HTTP API to bind to")
	setting("http-host")
	fs.IntVar(&c.HTTPPort, "http-port", c.HTTPPort, "`port` for the HTTP API")
	setting("http-port")
	fs.IntVar(&c.MaxConnections, "max-connections", c.MaxConnections,
		"maximum concurrent HTTP connections")
	setting("max-connections")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	setting("log-level")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "`file` to use for logging")
	setting("log-file")

	fs.BoolVarP(&c.LogStderr, "log-stderr", "s", c.LogStderr, "log to standard error")
	fs.StringVar(&c.ConfigFile, "config-file", c.ConfigFile, "`file` to load config from")
	fs.BoolVar(&c.NoConfig, "no-config", c.NoConfig, "don't load config file")
}

// EnvName is the environment variable consulted for a setting.
func EnvName(setting string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(setting, "-", "_"))
}

// Load fills in every setting not given on the command line, first from
// the environment and then from the config file. fs must be the parsed
// flag set passed to Bind. A missing default config file is not an error.
func (c *Config) Load(fs *pflag.FlagSet, lookupEnv func(string) (string, bool)) error {
	if c.settings == nil {
		return errors.New("config: Load called before Bind")
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	set := map[string]struct{}{}
	fs.Visit(func(flg *pflag.Flag) {
		set[flg.Name] = struct{}{}
	})

	for name, flg := range c.settings {
		if _, ok := set[name]; ok {
			continue
		}
		val, ok := lookupEnv(EnvName(name))
		if !ok {
			continue
		}
		if err := flg.Value.Set(val); err != nil {
			return fmt.Errorf("%s: %s", EnvName(name), err)
		}
		set[name] = struct{}{}
	}

	if c.NoConfig || c.ConfigFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !fs.Changed("config-file") {
			return nil
		}
		return err
	}
	return c.loadHCL(b, set)
}

func (c *Config) loadHCL(b []byte, set map[string]struct{}) error {
	var cfg map[string]interface{}
	if err := hcl.Decode(&cfg, string(b)); err != nil {
		return fmt.Errorf("%s: %s", c.ConfigFile, err)
	}

	for name, val := range cfg {
		flg, ok := c.settings[name]
		if !ok {
			return fmt.Errorf("%s is not a config variable", name)
		}
		if _, ok := set[name]; ok {
			continue
		}
		if err := flg.Value.Set(fmt.Sprintf("%v", val)); err != nil {
			return fmt.Errorf("%s: %s", name, err)
		}
	}
	return nil
}

// LoadEnvFile reads KEY=value pairs from path into the process
// environment without overriding variables that are already set. A
// missing file is ignored.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Database returns the connection options described by the settings.
func (c *Config) Database() database.Options {
	return database.Options{
		Driver:   c.Driver,
		DSN:      c.DSN,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

// ExecutorOptions returns the limits to apply to every query.
func (c *Config) ExecutorOptions() []query.Option {
	return []query.Option{
		query.WithTimeout(c.QueryTimeout),
		query.WithMaxRows(c.MaxRows),
	}
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}
