// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Database drivers understood by the store package.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Moderation ModerationConfig
	Import     ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the storage engine: postgres or sqlite (default: postgres)
	Driver string `env:"DB_DRIVER" envDefault:"postgres"`

	// URL is the PostgreSQL connection string or the SQLite file path (required)
	URL string `env:"DATABASE_URL,required"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" envDefault:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" envDefault:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// HealthCheckPeriod is the interval between pool health checks (default: 1m)
	HealthCheckPeriod time.Duration `env:"DB_HEALTHCHECK_PERIOD" envDefault:"1m"`

	// RetryAttempts is the number of connection attempts at startup (default: 3)
	RetryAttempts int `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`

	// RetryInterval is the base wait between connection attempts (default: 2s)
	RetryInterval time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"2s"`
}

// SecurityConfig holds caller identity settings.
type SecurityConfig struct {
	// Principals maps API keys to callers, one "key=user_id:perm,perm" entry
	// per item, items separated by ";".
	Principals []string `env:"API_PRINCIPALS" envSeparator:";"`

	// TrustedProxies lists CIDRs or IPs whose X-Real-IP/X-Forwarded-For
	// headers are honored (default: none)
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// RateLimitPerMinute caps requests per client IP per minute, 0 disables (default: 300)
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"300"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// ModerationConfig holds suggestion listing settings.
type ModerationConfig struct {
	// DefaultPageSize is used when a listing omits limit (default: 50)
	DefaultPageSize int `env:"MODERATION_DEFAULT_PAGE_SIZE" envDefault:"50"`

	// MaxPageSize caps the limit a caller may request (default: 100)
	MaxPageSize int `env:"MODERATION_MAX_PAGE_SIZE" envDefault:"100"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	// MaxDocumentBytes is the largest accepted import body in bytes (default: 5MB)
	MaxDocumentBytes int64 `env:"IMPORT_MAX_DOCUMENT_BYTES" envDefault:"5242880"`

	// MaxEntries is the largest number of flattened keys per import (default: 10000)
	MaxEntries int `env:"IMPORT_MAX_ENTRIES" envDefault:"10000"`

	// MaxConcurrent is the number of imports allowed to run at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" envDefault:"4"`

	// MaxWait is how long an import waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"IMPORT_MAX_WAIT" envDefault:"10s"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
