package database

import (
	"context"
	"database/sql"
	"errors"
)

// sqlQuerier is the statement surface shared by *sql.Conn and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteSession is a Session over one pinned *sql.Conn.
type sqliteSession struct {
	conn   *sql.Conn
	tx     *sql.Tx
	stmts  map[string]*sql.Stmt
	closed bool
}

func (s *sqliteSession) querier() sqlQuerier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *sqliteSession) Begin(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTxInProgress
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *sqliteSession) Commit(context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return ErrNoTx
	}

	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *sqliteSession) Rollback(context.Context) error {
	if s.closed || s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (s *sqliteSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}

	res, err := s.querier().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteSession) QueryRow(ctx context.Context, query string, args ...any) Row {
	if s.closed {
		return errRow{err: ErrSessionClosed}
	}
	return sqlRow{row: s.querier().QueryRowContext(ctx, query, args...)}
}

func (s *sqliteSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{Rows: rows}, nil
}

// QueryNamed prepares the named statement on this session's connection the
// first time it is used and reuses it until Close.
func (s *sqliteSession) QueryNamed(ctx context.Context, name string, args ...any) Row {
	if s.closed {
		return errRow{err: ErrSessionClosed}
	}

	stmt, err := s.prepared(ctx, name)
	if err != nil {
		return errRow{err: err}
	}
	if s.tx != nil {
		stmt = s.tx.StmtContext(ctx, stmt)
	}
	return sqlRow{row: stmt.QueryRowContext(ctx, args...)}
}

func (s *sqliteSession) prepared(ctx context.Context, name string) (*sql.Stmt, error) {
	if stmt, ok := s.stmts[name]; ok {
		return stmt, nil
	}

	query, ok := NamedQueries[name]
	if !ok {
		return nil, ErrUnknownNamedQuery
	}

	stmt, err := s.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	if s.stmts == nil {
		s.stmts = make(map[string]*sql.Stmt)
	}
	s.stmts[name] = stmt
	return stmt, nil
}

// Close rolls back any open transaction, closes prepared statements and
// returns the connection to the pool.
func (s *sqliteSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	for _, stmt := range s.stmts {
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.stmts = nil
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// sqlRow maps sql.ErrNoRows onto ErrNoRows.
type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

// sqlRows adapts *sql.Rows to Rows; the close error is already surfaced by Err.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}
