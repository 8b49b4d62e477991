// Package router builds the Echo instance: global middleware in order,
// the error handler, system routes and the versioned API routes.
package router

import (
	"github.com/deppfellow/account-gateway/internal/handler"
	"github.com/deppfellow/account-gateway/internal/middleware"
	"github.com/deppfellow/account-gateway/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires handlers and middleware into an *echo.Echo.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerAccountRoutes(v1, h)

	return router
}
