// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ljmarsh/gatewarden/internal/auth"
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler    *Handler
	middleware *Middleware
	authMW     *auth.Middleware
}

// NewRouter creates the router from its collaborators.
func NewRouter(handler *Handler, middleware *Middleware, authMW *auth.Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
		authMW:     authMW,
	}
}

// Setup builds the complete route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints stay outside auth and rate limiting so probes
	// keep working under load.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Decision endpoints require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Post("/check", router.handler.Check)
		r.Post("/check/global", router.handler.CheckGlobal)
		r.Post("/filter", router.handler.Filter)
		r.Post("/membership", router.handler.Membership)
		r.Post("/explain", router.handler.Explain)
		r.Get("/groups", router.handler.Groups)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/recent", router.handler.AuditRecent)
			r.Get("/stats", router.handler.AuditStats)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
