// Package sqlerr handles database driver errors.
//
// It classifies the errors raised by the PostgreSQL (pgx) and SQLite
// (modernc.org/sqlite) drivers into one set of codes, and converts them
// into client-facing HTTP errors (a unique violation becomes a
// "Bad Request", a missing row a "Not Found").
package sqlerr
