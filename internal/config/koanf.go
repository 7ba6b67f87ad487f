// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes all environment variable overrides, e.g.
	// GATEWARDEN_SERVER_PORT.
	EnvPrefix = "GATEWARDEN_"

	// ConfigPathEnvVar names the env var pointing at a config file.
	ConfigPathEnvVar = "GATEWARDEN_CONFIG"
)

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is not
// set.
var DefaultConfigPaths = []string{
	"gatewarden.yaml",
	"config/gatewarden.yaml",
	"/etc/gatewarden/gatewarden.yaml",
}

// Load builds the configuration in three layers: struct defaults, then
// an optional YAML file, then GATEWARDEN_* environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	processSliceFields(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the config file path to load, or "" if none
// exists. An explicit ConfigPathEnvVar that points at a missing file is
// an operator error, but Load surfaces that through file.Provider.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps GATEWARDEN_SERVER_PORT to server.port. Only the
// first underscore becomes a separator so multi-word keys like
// jwt_secret survive.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// processSliceFields splits comma-separated env values into slices for
// keys that unmarshal into []string. Koanf's env provider yields plain
// strings; YAML-sourced slices pass through untouched.
func processSliceFields(k *koanf.Koanf) {
	for _, key := range []string{"server.cors_origins"} {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		_ = k.Set(key, out)
	}
}
