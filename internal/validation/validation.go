// Package validation binds and validates request payloads.
//
// Rules live in `validate` struct tags (go-playground/validator); failures
// are turned into field-level errors the client can act on.
package validation
