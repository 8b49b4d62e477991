// Package server defines the application container.
//
// Server composes the long-lived dependencies (configuration, logger,
// New Relic service, storage engine) and owns the http.Server lifecycle:
// setup, start and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/deppfellow/account-gateway/internal/database"
	loggerPkg "github.com/deppfellow/account-gateway/internal/logger"
	"github.com/rs/zerolog"
)

// Server holds shared resources. It is not the HTTP server itself.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService may hold a nil New Relic application when APM is disabled.
	LoggerService *loggerPkg.LoggerService

	// DB is the storage engine and the session factory for repositories.
	DB database.Engine

	httpServer *http.Server
}

// New opens the configured storage engine and builds the container.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.Open(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return NewWithEngine(cfg, logger, loggerService, db), nil
}

// NewWithEngine builds the container around an engine the caller already opened.
func NewWithEngine(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, db database.Engine) *Server {
	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
	}
}

// SetupHTTPServer configures the http.Server around handler.
// Config timeouts are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start serves HTTP until the server is shut down. It returns
// http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("driver", s.DB.Driver()).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires, then closes the
// storage engine and flushes New Relic.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	s.LoggerService.Shutdown()
	return nil
}
