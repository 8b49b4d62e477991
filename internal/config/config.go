// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates them so the
// application fails fast on bad or missing configuration.
//
// Key mapping:
//   - only variables prefixed with KONTO_ are read
//   - the prefix is removed and the rest is lowercased
//   - a double underscore separates nesting levels
//
// Example:
//
//	KONTO_DATABASE__SSL_MODE=disable -> database.ssl_mode -> Config.Database.SSLMode
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Loads `.env` into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "KONTO_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional; defaults are injected
// when it is missing.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the sustained number of requests per second allowed per
	// client IP. Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

// DatabaseConfig selects the storage engine and carries its connection
// parameters and pool tuning.
//
// Driver is "postgres" (default) or "sqlite". The network fields are
// required for postgres only; Path is required for sqlite only.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"omitempty,oneof=postgres sqlite"`

	Host     string `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port     int    `koanf:"port" validate:"required_unless=Driver sqlite"`
	User     string `koanf:"user" validate:"required_unless=Driver sqlite"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required_unless=Driver sqlite"`
	SSLMode  string `koanf:"ssl_mode" validate:"required_unless=Driver sqlite"`

	Path string `koanf:"path" validate:"required_if=Driver sqlite"`

	MaxOpenConns    int `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int `koanf:"conn_max_idle_time" validate:"min=0"`
}

// envKey turns KONTO_SERVER__READ_TIMEOUT into server.read_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults and returns it.
//
// Behavior summary:
//   - loads env vars with prefix KONTO_ into koanf
//   - starts from defaults for server timeouts, the postgres port and
//     observability, so env vars only need to override what differs
//   - validates struct tags, then the observability block
//   - forces observability service name and environment
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{
		Server: ServerConfig{
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Port:    5432,
			SSLMode: "disable",
		},
		Observability: DefaultObservabilityConfig(),
	}

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
