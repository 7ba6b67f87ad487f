// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package auth provides JWT bearer authentication for the Gatewarden
// API. Authenticated requests carry a Subject in the request context;
// the subject's ID is the user key every permission decision is
// evaluated against.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Standard authentication errors.
var (
	// ErrNoCredentials indicates no bearer token was provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the bearer token was invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Subject represents an authenticated caller.
type Subject struct {
	// ID is the unique identifier for this subject. It is the user
	// key used for permission evaluation.
	ID string `json:"id"`

	// Username is the human-readable username.
	Username string `json:"username"`
}

// AnonymousSubject is the subject attached to requests when
// authentication is disabled.
var AnonymousSubject = Subject{ID: "anonymous", Username: "anonymous"}

type contextKey string

const subjectContextKey contextKey = "auth-subject"

// ContextWithSubject stores the subject in the context.
func ContextWithSubject(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext retrieves the authenticated subject from the
// context. The second return is false when no subject is present,
// which means the request did not pass through the auth middleware.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	subject, ok := ctx.Value(subjectContextKey).(Subject)
	return subject, ok
}

// SubjectFromRequest is a convenience wrapper over SubjectFromContext.
func SubjectFromRequest(r *http.Request) (Subject, bool) {
	return SubjectFromContext(r.Context())
}

// bearerToken extracts the token from an Authorization header.
// Returns ErrNoCredentials when the header is absent or not a Bearer
// scheme.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrNoCredentials
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}
