// Package handler is the HTTP entry point behind the router.
//
// Handlers bind and validate requests through the validation package, call
// the service layer and write JSON responses. Errors are returned to the
// global error handler rather than written here.
package handler
