// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package config provides layered configuration for the Gatewarden
// server: struct defaults, then an optional YAML file, then environment
// variables, loaded through koanf.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Gatewarden server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Auth    AuthConfig    `koanf:"auth"`
	Authz   AuthzConfig   `koanf:"authz"`
	Audit   AuditConfig   `koanf:"audit"`
	Policy  PolicyConfig  `koanf:"policy"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins. Empty disables cross-origin
	// requests; configure explicitly rather than defaulting to "*".
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// AuthConfig holds bearer-token authentication settings.
type AuthConfig struct {
	// Disabled turns off authentication entirely. Intended for local
	// development; every request then evaluates as the anonymous user.
	Disabled bool `koanf:"disabled"`

	// JWTSecret signs and verifies bearer tokens (HS256). Required
	// unless Disabled; minimum 32 bytes.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL bounds the validity of issued tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// AuthzConfig holds decision-service settings.
type AuthzConfig struct {
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled       bool          `koanf:"enabled"`
	LogAllowed    bool          `koanf:"log_allowed"`
	LogDenied     bool          `koanf:"log_denied"`
	SampleRate    float64       `koanf:"sample_rate" validate:"min=0,max=1"`
	BufferSize    int           `koanf:"buffer_size" validate:"min=0"`
	FlushInterval time.Duration `koanf:"flush_interval"`

	// StorePath is the Badger directory for the persistent decision
	// trail. Empty disables persistence; decisions are then only
	// logged.
	StorePath string `koanf:"store_path"`

	// Retention bounds how long persisted decisions are kept.
	Retention time.Duration `koanf:"retention"`
}

// PolicyConfig holds the data half of the permission policy: verdict
// assignments for the built-in content groups and global grants for
// individual users. Group membership predicates are code, not
// configuration.
type PolicyConfig struct {
	// AllowGroupNameReuse lets one group name be bound to multiple
	// content types.
	AllowGroupNameReuse bool `koanf:"allow_group_name_reuse"`

	// Grants assigns permission verdicts to registered groups.
	Grants []GrantConfig `koanf:"grants" validate:"dive"`

	// GlobalGrants assigns non-relational permissions to users.
	GlobalGrants []GlobalGrantConfig `koanf:"global_grants" validate:"dive"`
}

// GrantConfig assigns one permission verdict to one group.
type GrantConfig struct {
	Group string `koanf:"group" validate:"required"`

	// ContentType disambiguates the group binding when name reuse is
	// enabled (e.g. "post", "project"). Empty applies the assignment
	// to every binding of the name.
	ContentType string `koanf:"content_type"`

	Permission string `koanf:"permission" validate:"required"`
	Value      string `koanf:"value" validate:"required,oneof=allow deny inherit"`
}

// GlobalGrantConfig assigns non-relational permissions to one user.
type GlobalGrantConfig struct {
	User  string   `koanf:"user" validate:"required"`
	Allow []string `koanf:"allow"`
	Deny  []string `koanf:"deny"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8711,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			Disabled: false,
			TokenTTL: 24 * time.Hour,
		},
		Authz: AuthzConfig{
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:       true,
			LogAllowed:    true,
			LogDenied:     true,
			SampleRate:    1.0,
			BufferSize:    1000,
			FlushInterval: 5 * time.Second,
			Retention:     30 * 24 * time.Hour,
		},
		Policy: PolicyConfig{},
	}
}

// Validate checks the configuration for consistency. Struct tags cover
// ranges and enums; cross-field rules are checked by hand.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.Auth.Disabled && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d); set auth.disabled for local development", len(c.Auth.JWTSecret))
	}
	return nil
}
