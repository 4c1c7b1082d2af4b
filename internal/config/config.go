// Package config loads server settings.
//
// Sources, lowest precedence first:
//  1. Defaults (New)
//  2. A YAML file, if CODESYNC_CONFIG names one
//  3. CODESYNC_* environment variables, e.g. CODESYNC_DB_PATH
//
// Keys are flat and match the koanf tags below.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Sentinel error kinds, so callers can errors.Is a failed Load.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// MinJWTSecretLength matches what auth.NewTokenService accepts.
const MinJWTSecretLength = 16

type Config struct {
	Addr     string        `koanf:"addr"`
	DBPath   string        `koanf:"db_path"`
	LogLevel string        `koanf:"log_level"`
	JWT      string        `koanf:"jwt_secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`

	// GitHub OAuth is optional; the /auth/github routes are only mounted
	// when both the client ID and secret are set.
	GitHubClientID     string `koanf:"github_client_id"`
	GitHubClientSecret string `koanf:"github_client_secret"`
	GitHubCallbackURL  string `koanf:"github_callback_url"`
}

// New returns the defaults. JWT has no default: a server must be given a
// secret explicitly.
func New() *Config {
	return &Config{
		Addr:              ":8080",
		DBPath:            "data/codesync.db",
		LogLevel:          "info",
		TokenTTL:          24 * time.Hour,
		GitHubCallbackURL: "http://localhost:8080/auth/github/callback",
	}
}

// GitHubEnabled reports whether GitHub login is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	if len(c.JWT) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("jwt_secret must be at least %d characters", MinJWTSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error (any case) to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", s)
}
