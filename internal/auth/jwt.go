// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ljmarsh/gatewarden/internal/config"
)

// Claims represents the JWT claims carried by Gatewarden bearer
// tokens. The subject ID lives in the registered "sub" claim.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates bearer tokens. Tokens are signed
// with HMAC-SHA256; the secret must be at least 32 bytes.
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewJWTManager creates a token manager from the auth configuration.
// Returns an error if the secret is shorter than 32 bytes.
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters (got %d)", len(cfg.JWTSecret))
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: ttl,
	}, nil
}

// GenerateToken creates a signed token for the given subject.
func (m *JWTManager) GenerateToken(subject Subject) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: subject.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the token signature, expiry and signing
// algorithm, and returns the subject it encodes. Only HMAC signing is
// accepted; anything else is treated as an algorithm confusion
// attempt.
func (m *JWTManager) ValidateToken(tokenString string) (Subject, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Subject{}, fmt.Errorf("%w: invalid claims", ErrInvalidCredentials)
	}
	if claims.Subject == "" {
		return Subject{}, fmt.Errorf("%w: missing sub claim", ErrInvalidCredentials)
	}

	return Subject{ID: claims.Subject, Username: claims.Username}, nil
}
