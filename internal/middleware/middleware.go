// Package middleware holds the Echo middleware shared by every route:
// rate limiting, request ids, New Relic tracing, request-scoped loggers,
// request logging, panic recovery, secure headers and CORS. It also
// provides the global error handler.
package middleware
