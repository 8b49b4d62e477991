package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLite is the embedded engine: a database/sql handle over modernc.org/sqlite.
//
// Each Session pins one *sql.Conn from the handle's pool so that a
// transaction and the statements inside it share a connection.
type SQLite struct {
	DB   *sql.DB
	path string
	log  *zerolog.Logger
}

// sqliteDSN enables WAL for concurrent readers, waits on locks instead of
// failing with SQLITE_BUSY, and starts write transactions with
// BEGIN IMMEDIATE so read-modify-write units never have to upgrade a lock.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// NewSQLite opens (creating if needed) the SQLite database at cfg.Path.
func NewSQLite(cfg config.DatabaseConfig, logger *zerolog.Logger) (*SQLite, error) {
	db, err := sql.Open(DriverSQLite, sqliteDSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a small pool is plenty.
	maxOpen := 10
	if cfg.MaxOpenConns > 0 {
		maxOpen = cfg.MaxOpenConns
	}
	maxIdle := 5
	if cfg.MaxIdleConns > 0 {
		maxIdle = cfg.MaxIdleConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("driver", DriverSQLite).Str("path", cfg.Path).Msg("connected to the database")

	return &SQLite{
		DB:   db,
		path: cfg.Path,
		log:  logger,
	}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Driver reports DriverSQLite.
func (s *SQLite) Driver() string {
	return DriverSQLite
}

// Session pins a connection from the pool and wraps it in a Session.
func (s *SQLite) Session(ctx context.Context) (Session, error) {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

// Ping checks that the database file is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Migrate applies the embedded migrations not yet recorded in schema_migrations.
func (s *SQLite) Migrate(ctx context.Context) error {
	return migrateSQLite(ctx, s.DB, s.log)
}

// Close closes the underlying handle and every pooled connection.
func (s *SQLite) Close() error {
	s.log.Info().Msg("closing database connection pool")
	return s.DB.Close()
}
