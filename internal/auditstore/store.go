// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package auditstore persists permission decision audit events in
// BadgerDB. Events are written with a retention TTL and read back in
// reverse chronological order.
package auditstore

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/ljmarsh/gatewarden/internal/authz"
)

const keyPrefix = "audit:"

// Config configures the audit store.
type Config struct {
	// Path is the BadgerDB directory. Empty opens an in-memory store,
	// used in tests.
	Path string

	// Retention is the TTL applied to each event. Zero keeps events
	// until the database is deleted.
	Retention time.Duration
}

// Store is a BadgerDB-backed audit trail.
type Store struct {
	db        *badger.DB
	retention time.Duration
}

// Open opens the store at the configured path.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &Store{db: db, retention: cfg.Retention}, nil
}

// Append persists one audit event. Keys embed the event timestamp in
// RFC3339Nano so lexicographic order is chronological order.
func (s *Store) Append(event *authz.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := []byte(keyPrefix + event.Timestamp.UTC().Format(time.RFC3339Nano) + ":" + event.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]*authz.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []*authz.AuditEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last possible key in
		// the prefix range.
		seek := append([]byte(keyPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(keyPrefix)) && len(events) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var event authz.AuditEvent
				if err := json.Unmarshal(val, &event); err != nil {
					return fmt.Errorf("unmarshal audit event: %w", err)
				}
				events = append(events, &event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Len counts stored events. Intended for tests and diagnostics.
func (s *Store) Len() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC triggers one value log garbage collection cycle. Badger
// returns ErrNoRewrite when there was nothing to collect; callers
// should treat that as success.
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
