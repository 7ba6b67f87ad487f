// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package authz

import (
	"strings"
	"sync"
	"time"
)

// decisionCache caches permission decisions keyed by user, content
// type, item and permission. Entries expire after the configured TTL.
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]*cacheItem
	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		items:    make(map[string]*cacheItem),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// key builds the cache key. Item IDs are caller-supplied, so the
// separator keeps the components unambiguous enough in practice.
func (c *decisionCache) key(userKey, contentType, itemID, permission string) string {
	return strings.Join([]string{userKey, contentType, itemID, permission}, "\x1f")
}

func (c *decisionCache) get(userKey, contentType, itemID, permission string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[c.key(userKey, contentType, itemID, permission)]
	if !ok || time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *decisionCache) set(userKey, contentType, itemID, permission string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[c.key(userKey, contentType, itemID, permission)] = &cacheItem{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
	CacheSize.Set(float64(len(c.items)))
}

// invalidateUser removes all cached decisions for a user.
func (c *decisionCache) invalidateUser(userKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := userKey + "\x1f"
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	CacheSize.Set(float64(len(c.items)))
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheItem)
	CacheSize.Set(0)
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanup periodically removes expired items.
func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
					CacheEvictionsTotal.Inc()
				}
			}
			CacheSize.Set(float64(len(c.items)))
			c.mu.Unlock()
		}
	}
}

// stop halts the cleanup goroutine. Idempotent.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
