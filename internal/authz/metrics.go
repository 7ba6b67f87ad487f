// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package authz is the decision service behind the Gatewarden API. It
// wraps the permission filter with a TTL decision cache, asynchronous
// audit logging and Prometheus metrics.
package authz

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts permission decisions by content type,
	// permission and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewarden_decisions_total",
			Help: "Total number of permission decisions",
		},
		[]string{"content_type", "permission", "decision"},
	)

	// DecisionDuration tracks decision latency. Relational predicate
	// evaluation is in-memory, so buckets run from microseconds to
	// low milliseconds.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatewarden_decision_duration_seconds",
			Help:    "Duration of permission decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"cache_hit"},
	)

	// DeniedTotal tracks denials separately for alerting.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewarden_denied_total",
			Help: "Total number of permission denials",
		},
		[]string{"content_type", "permission"},
	)

	// FilterItemsTotal counts items flowing through batch filtering by
	// verdict.
	FilterItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewarden_filter_items_total",
			Help: "Total number of items evaluated by batch filtering",
		},
		[]string{"content_type", "verdict"},
	)

	// FilterDuration tracks batch filter latency.
	FilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatewarden_filter_duration_seconds",
			Help:    "Duration of batch filter evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"content_type"},
	)

	// MembershipChecksTotal counts group membership queries.
	MembershipChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewarden_membership_checks_total",
			Help: "Total number of group membership checks",
		},
		[]string{"group", "result"},
	)

	// CacheHitsTotal counts decision cache hits.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_cache_hits_total",
		Help: "Total number of decision cache hits",
	})

	// CacheMissesTotal counts decision cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_cache_misses_total",
		Help: "Total number of decision cache misses",
	})

	// CacheSize tracks the current number of cached decisions.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gatewarden_cache_entries",
		Help: "Current number of entries in the decision cache",
	})

	// CacheEvictionsTotal counts TTL evictions from the decision cache.
	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_cache_evictions_total",
		Help: "Total number of decision cache evictions",
	})

	// AuditEventsDroppedTotal counts audit events dropped because the
	// buffer was full.
	AuditEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_audit_events_dropped_total",
		Help: "Total number of audit events dropped due to a full buffer",
	})
)

// recordDecision updates the decision counters and latency histogram.
func recordDecision(contentType, permission string, allowed, cacheHit bool, duration time.Duration) {
	DecisionsTotal.WithLabelValues(contentType, permission, decisionLabel(allowed)).Inc()
	DecisionDuration.WithLabelValues(strconv.FormatBool(cacheHit)).Observe(duration.Seconds())
	if !allowed {
		DeniedTotal.WithLabelValues(contentType, permission).Inc()
	}
}

func decisionLabel(allowed bool) string {
	if allowed {
		return "allow"
	}
	return "deny"
}
