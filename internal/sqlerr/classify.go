package sqlerr

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCode reports the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// Classify converts a PostgreSQL or SQLite driver error found in err's chain
// into an *Error. Any other error, including nil, is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	return err
}

// ConvertPgError converts a raw PostgreSQL error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// SQLite reports constraint failures as "<KIND> constraint failed: table.column".
var sqliteConstraintTarget = regexp.MustCompile(`constraint failed: (\w+)\.(\w+)`)

// ConvertSQLiteError converts a modernc.org/sqlite error into an *Error.
// SQLite has no schema or constraint names; table and column are recovered
// from the message when the engine includes them.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	code := src.Code()
	out := &Error{
		Code:         MapSQLiteCode(code),
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(code),
		Message:      src.Error(),
		driverErr:    src,
	}

	if m := sqliteConstraintTarget.FindStringSubmatch(out.Message); m != nil {
		out.TableName = m[1]
		out.ColumnName = m[2]
	}

	return out
}

// MapSQLiteCode maps an extended SQLite result code to a Code.
func MapSQLiteCode(code int) Code {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return CheckViolation
	}

	// The low byte is the primary result code.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return Busy
	default:
		return Other
	}
}
