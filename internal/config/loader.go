package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Principal is a caller resolved from an API key.
type Principal struct {
	UserID      string
	Permissions []string
}

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ParsePrincipals decodes the API_PRINCIPALS entries into a key → principal map.
//
// Entry format: "key=user_id" or "key=user_id:perm,perm".
func (c *SecurityConfig) ParsePrincipals() (map[string]Principal, error) {
	principals := make(map[string]Principal, len(c.Principals))

	for _, entry := range c.Principals {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, rest, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("principal entry %q: expected key=user_id", entry)
		}

		userID, perms, _ := strings.Cut(rest, ":")
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return nil, fmt.Errorf("principal entry for key %q: user id is empty", maskKey(key))
		}

		if _, dup := principals[key]; dup {
			return nil, fmt.Errorf("principal key %q is configured twice", maskKey(key))
		}

		p := Principal{UserID: userID}
		for _, perm := range strings.Split(perms, ",") {
			if perm = strings.TrimSpace(perm); perm != "" {
				p.Permissions = append(p.Permissions, perm)
			}
		}
		principals[key] = p
	}

	return principals, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: postgres, sqlite", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.RetryAttempts <= 0 {
		errs = append(errs, "DB_RETRY_ATTEMPTS must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Moderation validation
	if c.Moderation.MaxPageSize <= 0 {
		errs = append(errs, "MODERATION_MAX_PAGE_SIZE must be positive")
	}
	if c.Moderation.DefaultPageSize <= 0 || c.Moderation.DefaultPageSize > c.Moderation.MaxPageSize {
		errs = append(errs, fmt.Sprintf("MODERATION_DEFAULT_PAGE_SIZE (%d) must be 1-%d",
			c.Moderation.DefaultPageSize, c.Moderation.MaxPageSize))
	}

	// Import validation
	if c.Import.MaxDocumentBytes <= 0 {
		errs = append(errs, "IMPORT_MAX_DOCUMENT_BYTES must be positive")
	}
	if c.Import.MaxEntries <= 0 {
		errs = append(errs, "IMPORT_MAX_ENTRIES must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWait <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT must be positive")
	}

	// Security validation
	if _, err := c.Security.ParsePrincipals(); err != nil {
		errs = append(errs, fmt.Sprintf("API_PRINCIPALS: %v", err))
	}
	if c.Security.RateLimitPerMinute < 0 {
		errs = append(errs, "RATE_LIMIT_PER_MINUTE must be non-negative")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.Driver, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Security: {Principals: %d, TrustedProxies: %d, RateLimitPerMinute: %d}, ",
		len(c.Security.Principals), len(c.Security.TrustedProxies), c.Security.RateLimitPerMinute))
	b.WriteString(fmt.Sprintf("Moderation: {DefaultPageSize: %d, MaxPageSize: %d}, ",
		c.Moderation.DefaultPageSize, c.Moderation.MaxPageSize))
	b.WriteString(fmt.Sprintf("Import: {MaxDocumentBytes: %d, MaxEntries: %d, MaxConcurrent: %d}, ",
		c.Import.MaxDocumentBytes, c.Import.MaxEntries, c.Import.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

// maskKey keeps only the first characters of an API key for error messages.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
