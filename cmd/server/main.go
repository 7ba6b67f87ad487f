// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Command server runs the Gatewarden permission decision service: an
// HTTP API evaluating relational content permissions for authenticated
// subjects, with a persistent audit trail and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ljmarsh/gatewarden/internal/api"
	"github.com/ljmarsh/gatewarden/internal/auditstore"
	"github.com/ljmarsh/gatewarden/internal/auth"
	"github.com/ljmarsh/gatewarden/internal/authz"
	"github.com/ljmarsh/gatewarden/internal/config"
	"github.com/ljmarsh/gatewarden/internal/content"
	"github.com/ljmarsh/gatewarden/internal/logging"
	"github.com/ljmarsh/gatewarden/internal/supervisor"
	"github.com/ljmarsh/gatewarden/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Bool("auth_disabled", cfg.Auth.Disabled).
		Bool("group_name_reuse", cfg.Policy.AllowGroupNameReuse).
		Int("grants", len(cfg.Policy.Grants)).
		Msg("Starting Gatewarden")

	// Build the permission filter from the built-in content schemas
	// and the configured policy.
	filter, err := content.BuildFilter(cfg.Policy)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build permission filter")
	}
	logging.Info().
		Int("groups", filter.Registry().Len()).
		Strs("content_types", content.TypeNames()).
		Msg("Permission filter built")

	// Optional persistent audit trail.
	var store *auditstore.Store
	var sink authz.AuditSink
	if cfg.Audit.Enabled && cfg.Audit.StorePath != "" {
		store, err = auditstore.Open(auditstore.Config{
			Path:      cfg.Audit.StorePath,
			Retention: cfg.Audit.Retention,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open audit store")
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit store")
			}
		}()
		sink = store
		logging.Info().Str("path", cfg.Audit.StorePath).Msg("Audit store opened")
	}

	service, err := authz.NewService(filter, &authz.ServiceConfig{
		CacheEnabled: cfg.Authz.CacheEnabled,
		CacheTTL:     cfg.Authz.CacheTTL,
		Audit: &authz.AuditLoggerConfig{
			Enabled:    cfg.Audit.Enabled,
			LogAllowed: cfg.Audit.LogAllowed,
			LogDenied:  cfg.Audit.LogDenied,
			SampleRate: cfg.Audit.SampleRate,
			BufferSize: cfg.Audit.BufferSize,
			Sink:       sink,
		},
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create decision service")
	}
	defer service.Close()

	// Bearer authentication.
	var jwtManager *auth.JWTManager
	if !cfg.Auth.Disabled {
		jwtManager, err = auth.NewJWTManager(cfg.Auth)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	} else {
		logging.Warn().Msg("Authentication disabled, all requests run as anonymous")
	}

	router := api.NewRouter(
		api.NewHandler(service, store),
		api.NewMiddleware(&api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSOrigins,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    cfg.Server.RateLimitWindow,
			RateLimitDisabled:  cfg.Server.RateLimitDisabled,
		}),
		auth.NewMiddleware(jwtManager, cfg.Auth.Disabled),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Supervisor events go through the zerolog-backed slog handler.
	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if store != nil {
		tree.AddStorageService(services.NewAuditGCService(store, 10*time.Minute))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Gatewarden stopped gracefully")
}
