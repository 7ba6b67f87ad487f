// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GATEWARDEN_AUTH_DISABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8711 {
		t.Errorf("Server.Port = %d, want 8711", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if !cfg.Authz.CacheEnabled || cfg.Authz.CacheTTL != 5*time.Minute {
		t.Errorf("Authz = %+v, want cache enabled with 5m TTL", cfg.Authz)
	}
	if cfg.Audit.SampleRate != 1.0 {
		t.Errorf("Audit.SampleRate = %v, want 1.0", cfg.Audit.SampleRate)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatewarden.yaml")
	content := `
server:
  port: 9100
  cors_origins:
    - https://app.example.com
    - https://admin.example.com
logging:
  level: debug
auth:
  disabled: true
policy:
  allow_group_name_reuse: true
  grants:
    - group: editors
      content_type: post
      permission: edit
      value: allow
  global_grants:
    - user: "3"
      allow: [edit, approve]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Policy.AllowGroupNameReuse {
		t.Error("Policy.AllowGroupNameReuse = false, want true")
	}
	if len(cfg.Policy.Grants) != 1 || cfg.Policy.Grants[0].Group != "editors" {
		t.Errorf("Policy.Grants = %+v, want one editors grant", cfg.Policy.Grants)
	}
	if len(cfg.Policy.GlobalGrants) != 1 || len(cfg.Policy.GlobalGrants[0].Allow) != 2 {
		t.Errorf("Policy.GlobalGrants = %+v, want one grant with two allows", cfg.Policy.GlobalGrants)
	}
	// File did not touch these; defaults survive layering.
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GATEWARDEN_SERVER_PORT", "9200")
	t.Setenv("GATEWARDEN_LOGGING_LEVEL", "warn")
	t.Setenv("GATEWARDEN_AUTH_DISABLED", "true")
	t.Setenv("GATEWARDEN_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want 9200", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i, origin := range want {
		if cfg.Server.CORSOrigins[i] != origin {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], origin)
		}
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = "too-short"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want jwt_secret error")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("Validate() = %v, want mention of jwt_secret", err)
	}
}

func TestValidateAcceptsDisabledAuth(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.Disabled = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with auth disabled", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"sample rate above one", func(c *Config) { c.Audit.SampleRate = 1.5 }},
		{"grant bad value", func(c *Config) {
			c.Policy.Grants = []GrantConfig{{Group: "g", Permission: "edit", Value: "maybe"}}
		}},
		{"grant missing group", func(c *Config) {
			c.Policy.Grants = []GrantConfig{{Permission: "edit", Value: "allow"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Auth.Disabled = true
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GATEWARDEN_SERVER_PORT", "server.port"},
		{"GATEWARDEN_AUTH_JWT_SECRET", "auth.jwt_secret"},
		{"GATEWARDEN_AUDIT_FLUSH_INTERVAL", "audit.flush_interval"},
		{"GATEWARDEN_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
