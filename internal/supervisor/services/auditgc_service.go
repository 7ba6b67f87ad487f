// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ljmarsh/gatewarden/internal/auditstore"
	"github.com/ljmarsh/gatewarden/internal/logging"
)

// AuditGCService periodically runs value log garbage collection on the
// audit store so expired events actually release disk space.
type AuditGCService struct {
	store    *auditstore.Store
	interval time.Duration
}

// NewAuditGCService creates the GC service. Interval defaults to ten
// minutes.
func NewAuditGCService(store *auditstore.Store, interval time.Duration) *AuditGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &AuditGCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *AuditGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := s.store.RunGC()
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logging.Warn().Err(err).Msg("Audit store GC failed")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *AuditGCService) String() string {
	return "audit-gc"
}
