package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/deppfellow/account-gateway/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestMapCode(t *testing.T) {
	tests := []struct {
		sqlState string
		want     Code
	}{
		{"23505", UniqueViolation},
		{"23503", ForeignKeyViolation},
		{"23502", NotNullViolation},
		{"23514", CheckViolation},
		{"40001", SerializationFailure},
		{"40P01", DeadlockDetected},
		{"42P01", Other},
	}

	for _, tt := range tests {
		if got := MapCode(tt.sqlState); got != tt.want {
			t.Errorf("MapCode(%q) = %s, want %s", tt.sqlState, got, tt.want)
		}
	}
}

func TestMapSeverity(t *testing.T) {
	if got := MapSeverity("FATAL"); got != SeverityFatal {
		t.Fatalf("MapSeverity(FATAL) = %s", got)
	}
	if got := MapSeverity("whatever"); got != SeverityError {
		t.Fatalf("unknown severity should map to ERROR, got %s", got)
	}
}

func TestClassifyPostgresError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "accounts_pkey"`,
		TableName:      "accounts",
		ConstraintName: "accounts_pkey",
	}
	wrapped := fmt.Errorf("failed to insert account: %w", pgErr)

	err := Classify(wrapped)

	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if sqlErr.Code != UniqueViolation || sqlErr.DatabaseCode != "23505" || sqlErr.TableName != "accounts" {
		t.Fatalf("unexpected classification: %+v", sqlErr)
	}
	if !errors.Is(err, pgErr) {
		t.Fatal("classified error should unwrap to the driver error")
	}
	if ErrCode(fmt.Errorf("outer: %w", err)) != UniqueViolation {
		t.Fatal("ErrCode should find the classified error through wrapping")
	}
}

func TestClassifyLeavesOtherErrorsAlone(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) should be nil")
	}

	plain := errors.New("boom")
	if Classify(plain) != plain {
		t.Fatal("Classify should return unrelated errors unchanged")
	}
	if ErrCode(plain) != Other {
		t.Fatal("ErrCode of an unrelated error should be Other")
	}
}

// duplicateInsertError provokes a real primary key violation in SQLite.
func duplicateInsertError(t *testing.T) error {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewSQLite(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "sqlerr.db"),
	}, &logger)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	s, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("Session returned error: %v", err)
	}
	defer s.Close()

	const insert = "INSERT INTO accounts (number, name, balance) VALUES ($1, $2, $3)"
	if _, err := s.Exec(ctx, insert, "1", "First", 1.0); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err = s.Exec(ctx, insert, "1", "Second", 2.0)
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	return err
}

func TestClassifySQLiteError(t *testing.T) {
	err := Classify(duplicateInsertError(t))

	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if sqlErr.Code != UniqueViolation {
		t.Fatalf("expected UniqueViolation, got %s (%s)", sqlErr.Code, sqlErr.DatabaseCode)
	}
	if sqlErr.TableName != "accounts" || sqlErr.ColumnName != "number" {
		t.Fatalf("expected accounts.number, got %s.%s", sqlErr.TableName, sqlErr.ColumnName)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name: "postgres primary key violation",
			err: &pgconn.PgError{
				Code:           "23505",
				TableName:      "accounts",
				ConstraintName: "accounts_pkey",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ACCOUNT_ALREADY_EXISTS",
			wantMsg:    "An Account with this identifier already exists",
		},
		{
			name: "postgres named unique constraint",
			err: &pgconn.PgError{
				Code:           "23505",
				TableName:      "accounts",
				ConstraintName: "accounts_name_key",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ACCOUNT_ALREADY_EXISTS",
			wantMsg:    "An Account with this Name already exists",
		},
		{
			name:       "sqlite primary key violation",
			err:        duplicateInsertError(t),
			wantStatus: http.StatusBadRequest,
			wantCode:   "ACCOUNT_ALREADY_EXISTS",
			wantMsg:    "An Account with this Number already exists",
		},
		{
			name:       "not null violation",
			err:        &pgconn.PgError{Code: "23502", TableName: "accounts", ColumnName: "name"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ACCOUNT_REQUIRED",
			wantMsg:    "The Name is required",
		},
		{
			name:       "serialization failure",
			err:        &pgconn.PgError{Code: "40001", TableName: "accounts"},
			wantStatus: http.StatusConflict,
			wantCode:   "ACCOUNT_CONFLICT",
		},
		{
			name:       "no rows",
			err:        fmt.Errorf("lookup: %w", database.ErrNoRows),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var httpErr *errs.HTTPError
			if !errors.As(HandleError(tt.err), &httpErr) {
				t.Fatal("expected *errs.HTTPError")
			}
			if httpErr.Status != tt.wantStatus || httpErr.Code != tt.wantCode {
				t.Fatalf("got %d %s, want %d %s", httpErr.Status, httpErr.Code, tt.wantStatus, tt.wantCode)
			}
			if tt.wantMsg != "" && httpErr.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestHandleErrorKeepsHTTPErrors(t *testing.T) {
	in := errs.NewForbiddenError("nope", true)
	if HandleError(in) != error(in) {
		t.Fatal("HandleError should return an *errs.HTTPError unchanged")
	}
}
