package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is the statement surface shared by *pgxpool.Conn and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgSession is a Session over one pooled PostgreSQL connection.
type pgSession struct {
	conn   *pgxpool.Conn
	tx     pgx.Tx
	closed bool
}

func (s *pgSession) querier() pgQuerier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *pgSession) Begin(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTxInProgress
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *pgSession) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return ErrNoTx
	}

	tx := s.tx
	s.tx = nil
	return tx.Commit(ctx)
}

func (s *pgSession) Rollback(ctx context.Context) error {
	if s.closed || s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func (s *pgSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}

	tag, err := s.querier().Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *pgSession) QueryRow(ctx context.Context, query string, args ...any) Row {
	if s.closed {
		return errRow{err: ErrSessionClosed}
	}
	return pgRow{row: s.querier().QueryRow(ctx, query, args...)}
}

func (s *pgSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.querier().Query(ctx, query, args...)
}

// QueryNamed prepares name on the session's connection and executes it.
// pgx keeps prepared statements per connection, so only the first use on a
// connection reaches the server; later calls are a map lookup.
func (s *pgSession) QueryNamed(ctx context.Context, name string, args ...any) Row {
	if s.closed {
		return errRow{err: ErrSessionClosed}
	}

	query, ok := NamedQueries[name]
	if !ok {
		return errRow{err: ErrUnknownNamedQuery}
	}
	if _, err := s.conn.Conn().Prepare(ctx, name, query); err != nil {
		return errRow{err: fmt.Errorf("failed to prepare named query %q: %w", name, err)}
	}
	return s.QueryRow(ctx, name, args...)
}

// Close rolls back any open transaction and returns the connection to the pool.
func (s *pgSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.tx != nil {
		// The caller's ctx may already be done; rollback must still reach the server.
		err = s.tx.Rollback(context.Background())
		if errors.Is(err, pgx.ErrTxClosed) {
			err = nil
		}
		s.tx = nil
	}
	s.conn.Release()
	return err
}

// pgRow maps pgx.ErrNoRows onto ErrNoRows.
type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	return err
}
