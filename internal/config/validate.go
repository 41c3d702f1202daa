package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if c.Storage.Backend == BackendPostgres && strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required for the postgres backend")
	}

	if c.Moderation.MaxBodyBytes <= 0 {
		return fmt.Errorf("moderation.max_body_bytes must be > 0 (got %d)", c.Moderation.MaxBodyBytes)
	}

	if c.RateLimit.SubmissionsPerMinute < 0 {
		return fmt.Errorf("rate_limit.submissions_per_minute must be >= 0 (got %d)", c.RateLimit.SubmissionsPerMinute)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Backend {
	case BackendFS:
		if strings.TrimSpace(s.ContentDir) == "" {
			return fmt.Errorf("content_dir is required for the fs backend")
		}
	case BackendPostgres:
	default:
		return fmt.Errorf("backend must be %q or %q (got %q)", BackendFS, BackendPostgres, s.Backend)
	}
	if s.OpTimeout <= 0 {
		return fmt.Errorf("op_timeout must be > 0 (got %s)", s.OpTimeout)
	}
	if s.LockRetries < 1 {
		return fmt.Errorf("lock_retries must be >= 1 (got %d)", s.LockRetries)
	}
	return nil
}
