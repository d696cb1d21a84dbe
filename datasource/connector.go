package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	dbfixture "github.com/shibukawa/dbfixture"
)

// PoolSettings defines database connection pool configuration
type PoolSettings struct {
	MaxOpenConns    int // Maximum number of open connections
	MaxIdleConns    int // Maximum number of idle connections
	ConnMaxLifetime int // Maximum lifetime of connections in seconds
}

func defaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 300, // 5 minutes
	}
}

type connectOptions struct {
	schema      string
	pool        PoolSettings
	pingTimeout time.Duration
}

// ConnectOption adjusts Connect behavior.
type ConnectOption func(*connectOptions)

// WithSchema sets the schema name used to qualify table references.
func WithSchema(schema string) ConnectOption {
	return func(o *connectOptions) {
		o.schema = schema
	}
}

// WithPoolSettings overrides the connection pool configuration.
func WithPoolSettings(settings PoolSettings) ConnectOption {
	return func(o *connectOptions) {
		o.pool = settings
	}
}

// WithPingTimeout bounds the reachability check performed after opening.
func WithPingTimeout(d time.Duration) ConnectOption {
	return func(o *connectOptions) {
		o.pingTimeout = d
	}
}

// connectionInfo contains parsed database connection information
type connectionInfo struct {
	dialect  dbfixture.Dialect
	host     string
	port     string
	database string
	username string
	password string
	options  url.Values
}

// Connect opens a data source from a URL (postgres://, mysql://, mariadb://,
// sqlite://path), applies pool settings, and verifies reachability with a
// bounded ping.
func Connect(ctx context.Context, databaseURL string, opts ...ConnectOption) (*DataSource, error) {
	o := connectOptions{
		pool:        defaultPoolSettings(),
		pingTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	info, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName(info.dialect), info.driverString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(o.pool.MaxOpenConns)
	db.SetMaxIdleConns(o.pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(o.pool.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", dbfixture.ErrConnectionFailed, err)
	}

	return &DataSource{DB: db, Dialect: info.dialect, Schema: o.schema}, nil
}

// RegisterFromConfig connects every configured database and registers it by
// name; the entry flagged as default also fills the default slot.
func RegisterFromConfig(ctx context.Context, cfg *dbfixture.Config, opts ...ConnectOption) error {
	for name, db := range cfg.Databases {
		connectOpts := opts
		if db.Schema != "" {
			connectOpts = append([]ConnectOption{WithSchema(db.Schema)}, opts...)
		}

		ds, err := Connect(ctx, db.Connection, connectOpts...)
		if err != nil {
			return fmt.Errorf("failed to connect %q: %w", name, err)
		}

		Register(name, ds)

		if db.Default {
			SetDefault(ds)
		}
	}

	return nil
}

func parseURL(databaseURL string) (connectionInfo, error) {
	if databaseURL == "" {
		return connectionInfo{}, fmt.Errorf("%w: empty URL", dbfixture.ErrInvalidConnectionURL)
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return connectionInfo{}, fmt.Errorf("%w: %v", dbfixture.ErrInvalidConnectionURL, err)
	}

	info := connectionInfo{options: u.Query()}

	switch u.Scheme {
	case "postgres", "postgresql":
		info.dialect = dbfixture.DialectPostgres
		info.port = "5432"
	case "mysql":
		info.dialect = dbfixture.DialectMySQL
		info.port = "3306"
	case "mariadb":
		info.dialect = dbfixture.DialectMariaDB
		info.port = "3306"
	case "sqlite", "sqlite3":
		info.dialect = dbfixture.DialectSQLite
		if u.Host == "" {
			// sqlite:///path/to/db.db format
			info.database = u.Path
		} else {
			// sqlite://./db.db format
			info.database = u.Host + u.Path
		}

		if info.database == "" {
			return connectionInfo{}, fmt.Errorf("%w: sqlite URL needs a file path", dbfixture.ErrInvalidConnectionURL)
		}

		return info, nil
	default:
		return connectionInfo{}, fmt.Errorf("%w: %s", dbfixture.ErrUnsupportedDialect, u.Scheme)
	}

	info.host = u.Hostname()
	if port := u.Port(); port != "" {
		info.port = port
	}

	info.database = strings.TrimPrefix(u.Path, "/")

	if u.User != nil {
		info.username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			info.password = password
		}
	}

	if info.host == "" {
		return connectionInfo{}, fmt.Errorf("%w: missing host in %s URL", dbfixture.ErrInvalidConnectionURL, u.Scheme)
	}

	if info.database == "" {
		return connectionInfo{}, fmt.Errorf("%w: missing database name in %s URL", dbfixture.ErrInvalidConnectionURL, u.Scheme)
	}

	return info, nil
}

// driverString converts parsed connection info to the driver-specific
// connection string.
func (info connectionInfo) driverString() string {
	switch info.dialect {
	case dbfixture.DialectPostgres:
		// pgx accepts standard PostgreSQL URLs
		auth := ""
		if info.username != "" {
			auth = info.username
			if info.password != "" {
				auth += ":" + info.password
			}

			auth += "@"
		}

		// Local test databases rarely speak TLS
		if info.options.Get("sslmode") == "" {
			info.options.Set("sslmode", "disable")
		}

		return fmt.Sprintf("postgres://%s%s/%s?%s",
			auth, net.JoinHostPort(info.host, info.port), info.database, info.options.Encode())

	case dbfixture.DialectMySQL, dbfixture.DialectMariaDB:
		// Convert to go-sql-driver/mysql format
		connStr := ""
		if info.username != "" {
			connStr += info.username
			if info.password != "" {
				connStr += ":" + info.password
			}

			connStr += "@"
		}

		connStr += "tcp(" + net.JoinHostPort(info.host, info.port) + ")/" + info.database

		// Temporal columns scan into time.Time for comparisons
		if info.options.Get("parseTime") == "" {
			info.options.Set("parseTime", "true")
		}

		// UPDATE must report matched rows, not changed rows, so
		// update-then-insert semantics can tell the two apart.
		if info.options.Get("clientFoundRows") == "" {
			info.options.Set("clientFoundRows", "true")
		}

		return connStr + "?" + info.options.Encode()

	case dbfixture.DialectSQLite:
		// SQLite uses the file path directly
		return info.database

	default:
		return ""
	}
}

func driverName(dialect dbfixture.Dialect) string {
	switch dialect {
	case dbfixture.DialectPostgres:
		return "pgx"
	case dbfixture.DialectMySQL, dbfixture.DialectMariaDB:
		return "mysql"
	case dbfixture.DialectSQLite:
		return "sqlite3"
	default:
		return ""
	}
}
