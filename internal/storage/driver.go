package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Driver selects the relational store.
type Driver string

const (
	MySQL  Driver = "mysql"
	SQLite Driver = "sqlite"
)

// String implements fmt.Stringer
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is supported
func (d Driver) IsValid() bool {
	switch d {
	case MySQL, SQLite:
		return true
	default:
		return false
	}
}

// Config holds everything needed to reach the database.
type Config struct {
	Driver Driver

	// MySQL specific
	Host        string
	Port        int
	Username    string
	Password    string
	Database    string
	TLSCertPath string
	TLSVerify   bool

	// SQLite specific
	SQLitePath string

	// Timeout bounds connect, read, write and ping.
	Timeout time.Duration
}

const defaultTimeout = 5 * time.Second

// Opener establishes a fresh, pinged database handle.
type Opener func(ctx context.Context) (*sql.DB, error)

// NewOpener returns the Opener for cfg.Driver.
func NewOpener(cfg Config) (Opener, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch cfg.Driver {
	case MySQL:
		mc, err := MySQLConfig(cfg)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (*sql.DB, error) {
			connector, err := mysql.NewConnector(mc)
			if err != nil {
				return nil, fmt.Errorf("create mysql connector: %w", err)
			}
			db := sql.OpenDB(connector)
			db.SetConnMaxLifetime(3 * time.Minute)
			db.SetMaxOpenConns(4)
			db.SetMaxIdleConns(4)
			return pinged(ctx, db, cfg.Timeout)
		}, nil
	case SQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLite database path is required for sqlite driver")
		}
		return func(ctx context.Context) (*sql.DB, error) {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
			db, err := sql.Open("sqlite", cfg.SQLitePath+"?_pragma=busy_timeout(5000)")
			if err != nil {
				return nil, fmt.Errorf("open sqlite database: %w", err)
			}
			db.SetMaxOpenConns(1)
			return pinged(ctx, db, cfg.Timeout)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func pinged(ctx context.Context, db *sql.DB, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// MySQLConfig builds the driver configuration: bounded timeouts, DATE
// columns parsed into time.Time, and the optional CA certificate.
func MySQLConfig(cfg Config) (*mysql.Config, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.Timeout = timeout
	mc.ReadTimeout = timeout
	mc.WriteTimeout = timeout
	mc.ParseTime = true
	mc.Loc = time.UTC

	if cfg.TLSCertPath != "" {
		tlsConfig, err := loadTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		mc.TLS = tlsConfig
	}

	return mc, nil
}

// loadTLSConfig trusts the given CA. Peer verification stays off unless
// TLSVerify is set, so managed databases with self-signed chains still work.
func loadTLSConfig(cfg Config) (*tls.Config, error) {
	pem, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("read SSL certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCertPath)
	}

	return &tls.Config{
		RootCAs:            pool,
		ServerName:         cfg.Host,
		InsecureSkipVerify: !cfg.TLSVerify,
		MinVersion:         tls.VersionTLS12,
	}, nil
}
