// Package postgres exposes a typed client for PostgreSQL. Every outcome of a
// query, statement or transaction crossing this package's boundary is either
// a success value or one of a closed set of error values - a raw driver
// error is never surfaced to a caller.
package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // required by go sql driver
	"github.com/pkg/errors"
)

// DefaultPort is the port we connect to when the config does not specify one.
const DefaultPort = 5432

// PingTimeout is the number of seconds we wait for a ping on Start before
// considering the database unreachable.
const PingTimeout = 10

// Config holds the settings used when opening a connection pool. Pooling
// itself is delegated entirely to database/sql; the values here are passed
// straight through.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// SSLMode is passed verbatim as the sslmode connection parameter, e.g.
	// "disable", "require" or "verify-full". The certificate paths are only
	// meaningful for the verifying modes.
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// BinaryParameters selects the binary wire format for parameters rather
	// than the default text format.
	BinaryParameters bool

	ConnectTimeout time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnStr assembles a postgres URL from the config. The password is escaped
// by url.UserPassword, and host/port joining is IPv6 safe.
func (c *Config) ConnStr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + c.Database,
	}

	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}

	params := url.Values{}
	if c.SSLMode != "" {
		params.Set("sslmode", c.SSLMode)
	}
	if c.SSLCert != "" {
		params.Set("sslcert", c.SSLCert)
	}
	if c.SSLKey != "" {
		params.Set("sslkey", c.SSLKey)
	}
	if c.SSLRootCert != "" {
		params.Set("sslrootcert", c.SSLRootCert)
	}
	if c.BinaryParameters {
		params.Set("binary_parameters", "yes")
	}
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = params.Encode()

	return u.String()
}

// Open is a simple helper function to return a new sqlx.DB instance or an error
func Open(connStr string) (*sqlx.DB, error) {
	return sqlx.Open("postgres", connStr)
}

// DB is our exported type that wraps a sqlx.DB instance
type DB struct {
	DB *sqlx.DB

	logger  kitlog.Logger
	connStr string
	cfg     *Config
	verbose bool
}

// NewDB returns a new DB instance configured from the given Config which is
// not yet connected to the database.
func NewDB(cfg *Config, logger kitlog.Logger, verbose bool) *DB {
	db := NewDBFromURL(cfg.ConnStr(), logger, verbose)
	db.cfg = cfg
	return db
}

// NewDBFromURL returns a new DB instance from a raw connection string which
// is not yet connected to the database.
func NewDBFromURL(connStr string, logger kitlog.Logger, verbose bool) *DB {
	logger = kitlog.With(logger, "module", "postgres")

	logger.Log("msg", "configuring postgres service")

	return &DB{
		connStr: connStr,
		logger:  logger,
		verbose: verbose,
	}
}

// Start attempts to connect to the configured database, applying any pool
// settings from the config and verifying the connection with a bounded ping.
func (d *DB) Start() error {
	d.logger.Log("msg", "starting postgres service")

	db, err := Open(d.connStr)
	if err != nil {
		return errors.Wrap(err, "failed to open db connection")
	}

	if d.cfg != nil {
		if d.cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(d.cfg.MaxOpenConns)
		}
		if d.cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(d.cfg.MaxIdleConns)
		}
		if d.cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(d.cfg.ConnMaxLifetime)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		return translate(err)
	}

	d.DB = db

	return nil
}

// Stop closes the connection pool.
func (d *DB) Stop() error {
	d.logger.Log("msg", "stopping postgres service")

	return d.DB.Close()
}

// Ping verifies the database is still reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return translate(err)
	}
	return nil
}

// Handle is the querying surface shared by the root pool and an open
// transaction, so the query functions can run inside or outside a
// transaction without caring which.
type Handle interface {
	ext() sqlx.ExtContext
	isVerbose() bool
}

func (d *DB) ext() sqlx.ExtContext { return d.DB }
func (d *DB) isVerbose() bool      { return d.verbose }
