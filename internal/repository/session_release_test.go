package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// recordingSession is a database.Session whose step named failAt fails.
// Every other step succeeds against one stored account.
type recordingSession struct {
	failAt      string
	err         error
	rollbackErr error
	closes      int
	rollbacks   int
}

func (s *recordingSession) fail(step string) error {
	if s.failAt == step {
		return s.err
	}
	return nil
}

func (s *recordingSession) Begin(context.Context) error { return s.fail("begin") }
func (s *recordingSession) Commit(context.Context) error { return s.fail("commit") }

func (s *recordingSession) Rollback(context.Context) error {
	s.rollbacks++
	return s.rollbackErr
}

func (s *recordingSession) Exec(context.Context, string, ...any) (int64, error) {
	if err := s.fail("exec"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *recordingSession) QueryRow(context.Context, string, ...any) database.Row {
	return fakeRow{err: s.fail("query_row")}
}

func (s *recordingSession) Query(context.Context, string, ...any) (database.Rows, error) {
	if err := s.fail("query"); err != nil {
		return nil, err
	}
	return &fakeRows{scanErr: s.fail("scan"), err: s.fail("rows")}, nil
}

func (s *recordingSession) QueryNamed(context.Context, string, ...any) database.Row {
	return fakeRow{err: s.fail("query_named")}
}

func (s *recordingSession) Close() error {
	s.closes++
	return nil
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanAccount(dest)
}

type fakeRows struct {
	read    bool
	scanErr error
	err     error
}

func (r *fakeRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return scanAccount(dest)
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close() {}

func scanAccount(dest []any) error {
	if len(dest) == 1 {
		*dest[0].(*int) = 1
		return nil
	}
	*dest[0].(*string) = "1"
	*dest[1].(*string) = "A"
	*dest[2].(*float64) = 1
	return nil
}

type recordingFactory struct {
	sessions    []*recordingSession
	failAt      string
	err         error
	rollbackErr error
}

func (f *recordingFactory) Session(context.Context) (database.Session, error) {
	s := &recordingSession{failAt: f.failAt, err: f.err, rollbackErr: f.rollbackErr}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func TestAccountRepositoryReleasesSessionOnFailure(t *testing.T) {
	boom := errors.New("connection reset")

	create := func(ctx context.Context, r *AccountRepository) error {
		return r.Create(ctx, model.NewAccount("1", "A", 1))
	}
	update := func(ctx context.Context, r *AccountRepository) error {
		return r.Update(ctx, model.NewAccount("1", "B", 2))
	}
	remove := func(ctx context.Context, r *AccountRepository) error {
		return r.Delete(ctx, "1")
	}
	find := func(ctx context.Context, r *AccountRepository) error {
		_, err := r.FindByNumber(ctx, "1")
		return err
	}
	listAll := func(ctx context.Context, r *AccountRepository) error {
		_, err := r.ListAll(ctx)
		return err
	}
	listByName := func(ctx context.Context, r *AccountRepository) error {
		_, err := r.ListByName(ctx, "A")
		return err
	}
	count := func(ctx context.Context, r *AccountRepository) error {
		_, err := r.Count(ctx)
		return err
	}

	tests := []struct {
		name          string
		op            func(context.Context, *AccountRepository) error
		failAt        string
		wantRollbacks int
	}{
		{"create begin", create, "begin", 0},
		{"create exec", create, "exec", 1},
		{"create commit", create, "commit", 0},
		{"update begin", update, "begin", 0},
		{"update read", update, "query_row", 1},
		{"update exec", update, "exec", 1},
		{"update commit", update, "commit", 0},
		{"delete lookup", remove, "query_row", 0},
		{"delete begin", remove, "begin", 0},
		{"delete exec", remove, "exec", 1},
		{"delete commit", remove, "commit", 0},
		{"find", find, "query_row", 0},
		{"list all query", listAll, "query", 0},
		{"list all scan", listAll, "scan", 0},
		{"list all rows", listAll, "rows", 0},
		{"list by name query", listByName, "query", 0},
		{"count", count, "query_named", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &recordingFactory{failAt: tt.failAt, err: boom}
			logger := zerolog.Nop()
			repo := NewAccountRepository(factory, &logger)

			if err := tt.op(context.Background(), repo); !errors.Is(err, boom) {
				t.Fatalf("error = %v, want %v", err, boom)
			}

			if len(factory.sessions) != 1 {
				t.Fatalf("opened %d sessions, want 1", len(factory.sessions))
			}
			s := factory.sessions[0]
			if s.closes != 1 {
				t.Fatalf("session closed %d times, want 1", s.closes)
			}
			if s.rollbacks != tt.wantRollbacks {
				t.Fatalf("rollbacks = %d, want %d", s.rollbacks, tt.wantRollbacks)
			}
		})
	}
}

func TestAccountRepositoryRollbackFailureKeepsCause(t *testing.T) {
	boom := errors.New("connection reset")
	factory := &recordingFactory{failAt: "exec", err: boom, rollbackErr: errors.New("rollback failed")}
	logger := zerolog.Nop()
	repo := NewAccountRepository(factory, &logger)

	if err := repo.Create(context.Background(), model.NewAccount("1", "A", 1)); !errors.Is(err, boom) {
		t.Fatalf("Create error = %v, want %v", err, boom)
	}

	s := factory.sessions[0]
	if s.rollbacks != 1 || s.closes != 1 {
		t.Fatalf("rollbacks = %d closes = %d, want 1 and 1", s.rollbacks, s.closes)
	}
}

func TestAccountRepositoryClassifiesScanErrors(t *testing.T) {
	scanErr := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type double precision"}
	factory := &recordingFactory{failAt: "scan", err: scanErr}
	logger := zerolog.Nop()
	repo := NewAccountRepository(factory, &logger)

	_, err := repo.ListAll(context.Background())

	var sqlErr *sqlerr.Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("ListAll error = %v, want an *sqlerr.Error", err)
	}
	if sqlErr.DatabaseCode != "22P02" {
		t.Fatalf("DatabaseCode = %q, want 22P02", sqlErr.DatabaseCode)
	}
	if factory.sessions[0].closes != 1 {
		t.Fatalf("session closed %d times, want 1", factory.sessions[0].closes)
	}
}
