// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package auth

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ljmarsh/gatewarden/internal/logging"
)

// Middleware enforces bearer authentication on API routes.
type Middleware struct {
	jwtManager *JWTManager
	disabled   bool
}

// NewMiddleware creates the auth middleware. When disabled is true
// every request passes through with AnonymousSubject attached.
func NewMiddleware(jwtManager *JWTManager, disabled bool) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		disabled:   disabled,
	}
}

// Authenticate validates the bearer token and stores the subject in
// the request context. Chi-compatible.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), AnonymousSubject)))
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			unauthorized(w, "authentication required")
			return
		}

		subject, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Bearer token validation failed")
			unauthorized(w, "invalid credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="gatewarden"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
