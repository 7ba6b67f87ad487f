// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// The counter must be labeled with the route pattern, not the
	// concrete URL, so cardinality stays bounded.
	metricsRec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metricsRec.Body.String()

	if !strings.Contains(body, `path="/things/{id}"`) {
		t.Error("request counter missing route pattern label /things/{id}")
	}
	if strings.Contains(body, `path="/things/42"`) {
		t.Error("request counter labeled with concrete URL instead of route pattern")
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	m := NewMiddleware(&MiddlewareConfig{RateLimitDisabled: true})

	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/check", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}
