package database

import (
	"context"
	"errors"
)

var (
	// ErrNoRows is returned by Row.Scan when the query matched nothing,
	// whichever engine ran it.
	ErrNoRows = errors.New("database: no rows in result set")

	// ErrSessionClosed is returned by any Session method called after Close.
	ErrSessionClosed = errors.New("database: session is closed")

	// ErrTxInProgress is returned by Begin when the session already has an open transaction.
	ErrTxInProgress = errors.New("database: transaction already in progress")

	// ErrNoTx is returned by Commit when there is no open transaction.
	ErrNoTx = errors.New("database: no transaction in progress")

	// ErrUnknownNamedQuery is returned (through Row.Scan) by QueryNamed
	// when the name is not registered in NamedQueries.
	ErrUnknownNamedQuery = errors.New("database: unknown named query")
)

// SessionFactory mints sessions on demand.
//
// Implementations are long-lived, shared across calls and safe for
// concurrent use. A factory is created once at startup and closed once
// at shutdown by its owner, never by the code that borrows sessions.
type SessionFactory interface {
	Session(ctx context.Context) (Session, error)
}

// Session is one unit of work against the storage engine.
//
// A session owns exactly one connection. It is not safe for concurrent use:
// acquire one per operation and release it with Close.
//
// While a transaction is open (between Begin and Commit/Rollback) every
// statement issued through the session runs inside it.
type Session interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	// Rollback aborts the open transaction. It is a no-op without one.
	Rollback(ctx context.Context) error

	// Exec runs a statement and reports the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// QueryNamed runs a precompiled query registered in NamedQueries.
	QueryNamed(ctx context.Context, name string, args ...any) Row

	// Close rolls back an unfinished transaction and releases the
	// connection. Calling it more than once is safe.
	Close() error
}

// Row is the result of a single-row query.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a forward-only cursor over a query result. Close must be called
// when done; it is safe to call after Next returned false.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Engine is a storage engine reachable through sessions.
type Engine interface {
	SessionFactory

	// Driver names the engine ("postgres" or "sqlite").
	Driver() string
	Ping(ctx context.Context) error
	// Migrate brings the schema to the latest version.
	Migrate(ctx context.Context) error
	Close() error
}

// errRow defers an error to Scan, mirroring how drivers report
// query failures from QueryRow.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
