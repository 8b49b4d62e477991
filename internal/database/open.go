package database

import (
	"fmt"

	"github.com/deppfellow/account-gateway/internal/config"
	loggerConfig "github.com/deppfellow/account-gateway/internal/logger"
	"github.com/rs/zerolog"
)

// Open builds the engine selected by cfg.Database.Driver.
// An empty driver means postgres.
func Open(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (Engine, error) {
	switch cfg.Database.Driver {
	case "", DriverPostgres:
		return New(cfg, logger, loggerService)
	case DriverSQLite:
		return NewSQLite(cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
