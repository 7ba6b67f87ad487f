// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package authz

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/ljmarsh/gatewarden/internal/auth"
	"github.com/ljmarsh/gatewarden/internal/content"
	"github.com/ljmarsh/gatewarden/internal/permissions"
)

// Service errors.
var (
	// ErrNilFilter is returned when the service is constructed
	// without a permission filter.
	ErrNilFilter = errors.New("permission filter is nil")
)

// globalContentType labels non-relational checks in audit events and
// metrics.
const globalContentType = "global"

// ServiceConfig holds configuration for the decision service.
type ServiceConfig struct {
	// CacheEnabled enables the TTL decision cache.
	CacheEnabled bool

	// CacheTTL is how long cached decisions stay valid. Items are
	// supplied per request, so an item whose fields change under the
	// same ID keeps returning the cached verdict until the entry
	// expires. Callers that cannot tolerate that window should use
	// InvalidateUser or set a shorter TTL.
	CacheTTL time.Duration

	// Audit configures decision audit logging. Nil uses defaults.
	Audit *AuditLoggerConfig
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		Audit:        DefaultAuditLoggerConfig(),
	}
}

// Service evaluates permission checks for authenticated subjects. It
// wraps the permission filter with caching, audit logging and metrics.
type Service struct {
	filter *permissions.Filter[auth.Subject]
	config *ServiceConfig
	cache  *decisionCache
	audit  *AuditLogger
}

// NewService creates the decision service.
func NewService(filter *permissions.Filter[auth.Subject], config *ServiceConfig) (*Service, error) {
	if filter == nil {
		return nil, ErrNilFilter
	}
	if config == nil {
		config = DefaultServiceConfig()
	}

	s := &Service{
		filter: filter,
		config: config,
		audit:  NewAuditLogger(config.Audit),
	}
	if config.CacheEnabled {
		s.cache = newDecisionCache(config.CacheTTL)
	}
	return s, nil
}

// Filter exposes the underlying permission filter for introspection
// endpoints.
func (s *Service) Filter() *permissions.Filter[auth.Subject] {
	return s.filter
}

// Check evaluates one permission for one content item.
func (s *Service) Check(ctx context.Context, subject auth.Subject, item content.Identifiable, permission string) (bool, error) {
	start := time.Now()
	typeName := content.NameOf(reflect.TypeOf(item))

	if s.cache != nil {
		if allowed, ok := s.cache.get(subject.ID, typeName, item.ContentID(), permission); ok {
			CacheHitsTotal.Inc()
			s.record(ctx, subject, typeName, item.ContentID(), permission, allowed, "", true, time.Since(start))
			return allowed, nil
		}
		CacheMissesTotal.Inc()
	}

	allowed, err := s.filter.Test(item, permission, subject)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		s.cache.set(subject.ID, typeName, item.ContentID(), permission, allowed)
	}
	s.record(ctx, subject, typeName, item.ContentID(), permission, allowed, "", false, time.Since(start))
	return allowed, nil
}

// CheckGlobal evaluates a non-relational permission for the subject.
func (s *Service) CheckGlobal(ctx context.Context, subject auth.Subject, permission string) bool {
	start := time.Now()
	allowed := s.filter.TestGlobal(permission, subject)
	s.record(ctx, subject, globalContentType, "", permission, allowed, "", false, time.Since(start))
	return allowed
}

// FilterItems returns the subset of items the subject holds the
// permission on, preserving input order. The batch produces a single
// audit event rather than one per item.
func (s *Service) FilterItems(ctx context.Context, subject auth.Subject, typeName string, items []content.Identifiable, permission string) ([]content.Identifiable, error) {
	start := time.Now()

	allowed, err := permissions.FilterItems(s.filter, items, permission, subject)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	FilterDuration.WithLabelValues(typeName).Observe(duration.Seconds())
	FilterItemsTotal.WithLabelValues(typeName, "allow").Add(float64(len(allowed)))
	FilterItemsTotal.WithLabelValues(typeName, "deny").Add(float64(len(items) - len(allowed)))

	s.audit.LogDecision(ctx, &AuditEvent{
		ActorID:       subject.ID,
		ActorUsername: subject.Username,
		ContentType:   typeName,
		Permission:    permission,
		Decision:      len(allowed) > 0,
		Reason:        "batch filter",
		Duration:      duration,
	})
	return allowed, nil
}

// IsMember reports whether the subject is a member of the named group
// with respect to the item.
func (s *Service) IsMember(ctx context.Context, subject auth.Subject, item content.Identifiable, groupName string) (bool, error) {
	member, err := s.filter.IsMember(item, groupName, subject)
	if err != nil {
		MembershipChecksTotal.WithLabelValues(groupName, "error").Inc()
		return false, err
	}
	MembershipChecksTotal.WithLabelValues(groupName, resultLabel(member)).Inc()
	return member, nil
}

// Explain returns the full decision trace for one item and permission.
// Traces always re-evaluate; the cache is bypassed so the trace
// reflects every contributing group.
func (s *Service) Explain(ctx context.Context, subject auth.Subject, item content.Identifiable, permission string) (*permissions.Trace, error) {
	return s.filter.Explain(item, permission, subject)
}

// InvalidateUser drops all cached decisions for a user key.
func (s *Service) InvalidateUser(userKey string) {
	if s.cache != nil {
		s.cache.invalidateUser(userKey)
	}
}

// AuditStats reports the audit logger's buffer state.
func (s *Service) AuditStats() AuditLoggerStats {
	return s.audit.Stats()
}

// Close stops the cache janitor and flushes the audit buffer.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.stop()
	}
	s.audit.Close()
}

func (s *Service) record(ctx context.Context, subject auth.Subject, typeName, itemID, permission string, allowed bool, reason string, cacheHit bool, duration time.Duration) {
	recordDecision(typeName, permission, allowed, cacheHit, duration)
	s.audit.LogDecision(ctx, &AuditEvent{
		ActorID:       subject.ID,
		ActorUsername: subject.Username,
		ContentType:   typeName,
		ItemID:        itemID,
		Permission:    permission,
		Decision:      allowed,
		Reason:        reason,
		Duration:      duration,
		CacheHit:      cacheHit,
	})
}

func resultLabel(member bool) string {
	if member {
		return "member"
	}
	return "not_member"
}
