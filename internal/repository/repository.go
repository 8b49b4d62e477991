// Package repository handles all interactions with the database.
//
// It owns the SQL and the row mapping. Each repository is built once around
// the shared session factory and opens a fresh session for every call, so
// a repository value is safe for concurrent use while sessions never are.
package repository
