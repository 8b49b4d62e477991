// Package errs defines the error shapes returned to API clients.
//
// HTTPError is serialized as the JSON body of every failed request, with
// optional field-level errors for rejected payloads.
package errs
