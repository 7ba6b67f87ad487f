// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package authz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ljmarsh/gatewarden/internal/logging"
)

// AuditEvent captures the complete context of one permission decision.
type AuditEvent struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RequestID links the event to an HTTP request.
	RequestID string `json:"request_id,omitempty"`

	// ActorID is the user key the decision was evaluated for.
	ActorID string `json:"actor_id"`

	// ActorUsername is the display name of the actor.
	ActorUsername string `json:"actor_username,omitempty"`

	// ContentType is the wire name of the content schema, or "global"
	// for non-relational checks.
	ContentType string `json:"content_type"`

	// ItemID identifies the content item, empty for global checks.
	ItemID string `json:"item_id,omitempty"`

	// Permission is the permission name that was checked.
	Permission string `json:"permission"`

	// Decision is true if access was allowed.
	Decision bool `json:"decision"`

	// Reason provides context for the decision.
	Reason string `json:"reason,omitempty"`

	// Duration is how long the decision took.
	Duration time.Duration `json:"duration_ns"`

	// CacheHit indicates the decision came from the cache.
	CacheHit bool `json:"cache_hit"`
}

// AuditSink receives audit events for persistence. Implementations
// must be safe for concurrent use.
type AuditSink interface {
	Append(event *AuditEvent) error
}

// AuditLoggerConfig configures the audit logger behavior.
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active.
	Enabled bool

	// LogAllowed controls whether allowed decisions are recorded.
	// Set to false to only record denials.
	LogAllowed bool

	// LogDenied controls whether denied decisions are recorded.
	LogDenied bool

	// SampleRate is the fraction of allowed decisions to record
	// (0.0 to 1.0). Denials are always recorded at full rate when
	// LogDenied is true.
	SampleRate float64

	// BufferSize is the size of the async event buffer. Events are
	// dropped when the buffer is full.
	BufferSize int

	// Sink optionally persists events in addition to logging them.
	Sink AuditSink
}

// DefaultAuditLoggerConfig returns production defaults.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:    true,
		LogAllowed: true,
		LogDenied:  true,
		SampleRate: 1.0,
		BufferSize: 1000,
	}
}

// AuditLogger records permission decisions asynchronously.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.SampleRate <= 0 || config.SampleRate > 1.0 {
		config.SampleRate = 1.0
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}
	return al
}

// LogDecision records a decision without blocking. Events are dropped
// if the buffer is full.
func (al *AuditLogger) LogDecision(ctx context.Context, event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}

	if event.Decision {
		if !al.config.LogAllowed {
			return
		}
		if al.config.SampleRate < 1.0 {
			// Deterministic sampling keyed on the event ID.
			if event.ID == "" {
				event.ID = uuid.New().String()
			}
			if int(event.ID[0])%100 >= int(al.config.SampleRate*100) {
				return
			}
		}
	} else if !al.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	select {
	case al.events <- event:
	default:
		AuditEventsDroppedTotal.Inc()
		logging.Warn().
			Str("actor_id", event.ActorID).
			Str("permission", event.Permission).
			Msg("Audit buffer full, event dropped")
	}
}

func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Decision {
		// Denials at warn level for visibility.
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "permission_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("actor_id", event.ActorID).
		Str("content_type", event.ContentType).
		Str("permission", event.Permission).
		Bool("decision", event.Decision).
		Dur("duration", event.Duration).
		Bool("cache_hit", event.CacheHit)

	if event.ActorUsername != "" {
		logEvent = logEvent.Str("actor_username", event.ActorUsername)
	}
	if event.ItemID != "" {
		logEvent = logEvent.Str("item_id", event.ItemID)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}

	if event.Decision {
		logEvent.Msg("Permission allowed")
	} else {
		logEvent.Msg("Permission denied")
	}

	if al.config.Sink != nil {
		if err := al.config.Sink.Append(event); err != nil {
			logging.Error().Err(err).Str("audit_id", event.ID).Msg("Failed to persist audit event")
		}
	}
}

// Close stops the logger and flushes remaining events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}
	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats reports the logger's buffer state.
func (al *AuditLogger) Stats() AuditLoggerStats {
	if al == nil {
		return AuditLoggerStats{}
	}
	return AuditLoggerStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		LogAllowed: al.config.LogAllowed,
		LogDenied:  al.config.LogDenied,
		SampleRate: al.config.SampleRate,
	}
}

// AuditLoggerStats describes the audit logger state.
type AuditLoggerStats struct {
	BufferSize int     `json:"buffer_size"`
	BufferUsed int     `json:"buffer_used"`
	Enabled    bool    `json:"enabled"`
	LogAllowed bool    `json:"log_allowed"`
	LogDenied  bool    `json:"log_denied"`
	SampleRate float64 `json:"sample_rate"`
}
